package ws

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/FlagWars/internal/match"
)

// Options sets per-connection limits
type Options struct {
	SendBuffer      int
	OrdersPerSecond float64
	OrderBurst      int
	ReadLimit       int64
	PongWait        time.Duration
	// AllowedOrigins lists accepted Origin hosts; empty accepts any.
	AllowedOrigins []string
}

// DefaultOptions mirrors the server defaults
func DefaultOptions() Options {
	return Options{
		SendBuffer:      256,
		OrdersPerSecond: 20,
		OrderBurst:      40,
		ReadLimit:       4096,
		PongWait:        60 * time.Second,
	}
}

// Server upgrades HTTP requests and tracks the live connections
type Server struct {
	registry *match.Registry
	opts     Options
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu      sync.Mutex
	clients map[string]*Client
	closing bool
	wg      sync.WaitGroup
}

// NewServer creates a websocket front end for the registry
func NewServer(registry *match.Registry, opts Options, logger zerolog.Logger) *Server {
	s := &Server{
		registry: registry,
		opts:     opts,
		logger:   logger.With().Str("component", "WSServer").Logger(),
		clients:  make(map[string]*Client),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, u.Host) {
			return true
		}
	}
	s.logger.Warn().Str("origin", origin).Msg("Rejected websocket connection from origin")
	return false
}

// Handler routes the websocket endpoint and the JSON room listing
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	mux.HandleFunc("/matches", s.serveMatches)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) serveMatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.registry.List()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write match list")
	}
}

// ServeHTTP upgrades the request and starts the connection's pumps
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.isClosing() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		s.logger.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("Websocket upgrade failed")
		return
	}

	c := newClient(uuid.NewString(), conn, s)
	s.mu.Lock()
	if s.closing {
		// Close started during the upgrade; it will not see this client.
		s.mu.Unlock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	s.clients[c.id] = c
	count := len(s.clients)
	s.wg.Add(2)
	s.mu.Unlock()

	s.logger.Info().
		Str("client_id", c.id).
		Str("remote", r.RemoteAddr).
		Int("connections", count).
		Msg("Client connected")

	go func() {
		defer s.wg.Done()
		c.writePump()
	}()
	go func() {
		defer s.wg.Done()
		c.readPump()
	}()
}

func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	count := len(s.clients)
	s.mu.Unlock()
	s.logger.Info().Str("client_id", c.id).Int("connections", count).Msg("Client disconnected")
}

// Connections counts open websocket connections
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Close ends every connection and waits for their pumps to exit. Upgrades
// arriving afterwards are refused.
func (s *Server) Close() {
	s.mu.Lock()
	s.closing = true
	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.closeSend()
	}
	s.wg.Wait()
}
