package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/match"
)

const writeWait = 10 * time.Second

// Client is one websocket connection. The read pump owns the match seat;
// any goroutine may queue outbound frames through Deliver.
type Client struct {
	id      string
	conn    *websocket.Conn
	server  *Server
	limiter *rate.Limiter
	logger  zerolog.Logger

	sendMu sync.RWMutex
	send   chan []byte
	closed bool

	// Read pump only.
	m       *match.Match
	session match.Session
}

func newClient(id string, conn *websocket.Conn, s *Server) *Client {
	return &Client{
		id:      id,
		conn:    conn,
		server:  s,
		limiter: rate.NewLimiter(rate.Limit(s.opts.OrdersPerSecond), s.opts.OrderBurst),
		logger:  s.logger.With().Str("client_id", id).Logger(),
		send:    make(chan []byte, s.opts.SendBuffer),
	}
}

// Deliver implements match.Sink. It never blocks; a full buffer drops the
// update and the match logs it.
func (c *Client) Deliver(u *match.Update) bool {
	b, err := json.Marshal(u)
	if err != nil {
		c.logger.Error().Err(err).Str("update", string(u.Type)).Msg("Failed to encode update")
		return false
	}
	return c.enqueue(b)
}

func (c *Client) reply(msg ServerMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode reply")
		return
	}
	if !c.enqueue(b) {
		c.logger.Warn().Str("type", msg.Type).Msg("Outbound buffer full, dropping reply")
	}
}

func (c *Client) replyError(id string, err error) {
	c.reply(ServerMessage{
		Type:  MsgError,
		ID:    id,
		Error: &ErrorBody{Code: errorCode(err), Message: err.Error()},
	})
}

func (c *Client) enqueue(b []byte) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// closeSend ends the write pump after it flushes what is queued
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump() {
	defer func() {
		if c.m != nil {
			c.m.Detach(c.session.ID)
		}
		c.server.unregister(c)
		c.closeSend()
		c.conn.Close()
	}()

	pongWait := c.server.opts.PongWait
	c.conn.SetReadLimit(c.server.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("Connection closed unexpectedly")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.replyError("", fmt.Errorf("%w: %v", errBadRequest, err))
			continue
		}
		c.handle(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.server.opts.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handle(msg ClientMessage) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().
				Interface("panic", r).
				Str("type", msg.Type).
				Bytes("stack", debug.Stack()).
				Msg("Message handler panicked")
			c.replyError(msg.ID, errors.New("internal error"))
		}
	}()

	var err error
	switch msg.Type {
	case MsgJoinMatch:
		err = c.handleJoin(msg)
	case MsgSpectate:
		err = c.handleSpectate(msg)
	case MsgSubmitOrder:
		err = c.handleOrder(msg)
	case MsgLeaveMatch:
		err = c.handleLeave(msg)
	case MsgReady:
		err = c.handleReady(msg)
	case MsgStartMatch:
		err = c.handleStart(msg)
	case MsgGetState:
		err = c.handleGetState(msg)
	case MsgListMatches:
		c.reply(ServerMessage{Type: MsgMatches, ID: msg.ID, Data: c.server.registry.List()})
	default:
		err = fmt.Errorf("%w: %q", errUnknownType, msg.Type)
	}
	if err != nil {
		c.logger.Debug().Err(err).Str("type", msg.Type).Msg("Request rejected")
		c.replyError(msg.ID, err)
	}
}

func decode(msg ClientMessage, into any) error {
	if len(msg.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg.Data, into); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (c *Client) handleJoin(msg ClientMessage) error {
	if c.m != nil {
		return errAlreadyInMatch
	}
	var req JoinRequest
	if err := decode(msg, &req); err != nil {
		return err
	}

	var (
		m    *match.Match
		sess match.Session
		err  error
	)
	switch {
	case req.MatchID == "":
		m, sess, err = c.server.registry.QuickJoin(req.Name, c)
	default:
		if m, err = c.server.registry.Get(req.MatchID); err != nil {
			return err
		}
		if req.Token != "" {
			sess, err = m.Rejoin(req.Token, c)
		} else {
			sess, err = m.Join(req.Name, c)
		}
	}
	if err != nil {
		return err
	}

	c.m, c.session = m, sess
	c.logger.Info().Str("match_id", m.ID()).Int("player_id", sess.PlayerID).Msg("Client joined match")
	c.reply(ServerMessage{Type: MsgJoined, ID: msg.ID, Data: Joined{
		MatchID:  m.ID(),
		PlayerID: sess.PlayerID,
		Token:    sess.ID,
	}})
	return nil
}

func (c *Client) handleSpectate(msg ClientMessage) error {
	if c.m != nil {
		return errAlreadyInMatch
	}
	var req SpectateRequest
	if err := decode(msg, &req); err != nil {
		return err
	}
	m, err := c.server.registry.Get(req.MatchID)
	if err != nil {
		return err
	}
	sess, err := m.Spectate(c)
	if err != nil {
		return err
	}
	c.m, c.session = m, sess
	c.reply(ServerMessage{Type: MsgJoined, ID: msg.ID, Data: Joined{
		MatchID:   m.ID(),
		PlayerID:  sess.PlayerID,
		Spectator: true,
	}})
	return nil
}

func (c *Client) handleOrder(msg ClientMessage) error {
	if c.m == nil {
		return errNotInMatch
	}
	if !c.limiter.Allow() {
		return errRateLimited
	}
	var req OrderRequest
	if err := decode(msg, &req); err != nil {
		return err
	}
	dir, err := core.ParseDirection(req.Direction)
	if err != nil {
		return err
	}
	if err := c.m.SubmitOrder(c.session.ID, core.Coordinate{X: req.X, Y: req.Y}, dir, req.Amount); err != nil {
		return err
	}
	c.reply(ServerMessage{Type: MsgOrderOK, ID: msg.ID})
	return nil
}

func (c *Client) handleLeave(msg ClientMessage) error {
	if c.m == nil {
		return errNotInMatch
	}
	if err := c.m.Leave(c.session.ID); err != nil {
		return err
	}
	c.m, c.session = nil, match.Session{}
	c.reply(ServerMessage{Type: MsgLeft, ID: msg.ID})
	return nil
}

func (c *Client) handleReady(msg ClientMessage) error {
	if c.m == nil {
		return errNotInMatch
	}
	req := ReadyRequest{Ready: true}
	if err := decode(msg, &req); err != nil {
		return err
	}
	if err := c.m.SetReady(c.session.ID, req.Ready); err != nil {
		return err
	}
	c.reply(ServerMessage{Type: MsgOK, ID: msg.ID})
	return nil
}

func (c *Client) handleStart(msg ClientMessage) error {
	if c.m == nil {
		return errNotInMatch
	}
	if c.session.Spectator {
		return match.ErrSpectator
	}
	if err := c.m.Start(); err != nil {
		return err
	}
	c.reply(ServerMessage{Type: MsgOK, ID: msg.ID})
	return nil
}

func (c *Client) handleGetState(msg ClientMessage) error {
	if c.m == nil {
		return errNotInMatch
	}
	u, err := c.m.SnapshotFor(c.session.ID)
	if err != nil {
		return err
	}
	if !c.Deliver(u) {
		c.logger.Warn().Msg("Outbound buffer full, dropping snapshot")
	}
	return nil
}
