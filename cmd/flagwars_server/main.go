package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/mitchelldurbincs/FlagWars/internal/config"
	"github.com/mitchelldurbincs/FlagWars/internal/game/events"
	"github.com/mitchelldurbincs/FlagWars/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/FlagWars/internal/match"
	"github.com/mitchelldurbincs/FlagWars/internal/monitoring"
	"github.com/mitchelldurbincs/FlagWars/internal/results"
	"github.com/mitchelldurbincs/FlagWars/internal/transport/ws"
)

// serviceName is the health check name reported next to the overall status
const serviceName = "flagwars.MatchServer"

// lifecycleEvents are logged for every match; -log-events adds the rest
var lifecycleEvents = []string{
	events.TypeMatchStarted,
	events.TypeMatchEnded,
	events.TypePlayerJoined,
	events.TypePlayerLeft,
	events.TypePlayerEliminated,
	events.TypeStateTransition,
}

func main() {
	configPath := flag.String("config", "", "Path to config file")
	env := flag.String("env", os.Getenv("APP_ENV"), "Environment overlay (loads config.<env>.yaml)")
	port := flag.Int("port", -1, "Websocket port (-1 to use config default)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	logEvents := flag.Bool("log-events", false, "Log every game event at debug level")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	if err := config.LoadEnvironmentConfig(*env); err != nil {
		log.Fatal().Err(err).Str("env", *env).Msg("Failed to load environment config")
	}
	cfg := config.Get()

	if *port == -1 {
		*port = cfg.Server.HTTP.Port
	}
	if *logLevel == "" {
		*logLevel = cfg.Server.LogLevel
	}
	setupLogging(*logLevel, cfg.Server.LogFormat)

	if err := run(cfg, *port, *logEvents); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
	log.Info().Msg("Server shutdown complete")
}

func run(cfg *config.Config, port int, logEvents bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder, err := results.Open(ctx, cfg.Results.Driver, cfg.Results.DSN, log.Logger)
	if err != nil {
		return fmt.Errorf("open results store: %w", err)
	}
	defer recorder.Close()

	// Each new match reads the live config so reloads apply to the next match.
	registry := match.NewRegistry(cfg.RegistryConfig(), func() match.Config {
		return config.Get().MatchConfig()
	}, recorder, log.Logger)
	registry.OnCreate(func(m *match.Match) {
		sub := subscribers.NewLoggerSubscriber("log-"+m.ID(), log.Logger, zerolog.InfoLevel)
		if logEvents {
			sub = subscribers.NewLoggerSubscriber("log-"+m.ID(), log.Logger, zerolog.DebugLevel)
			sub.SetDevMode(true)
		} else {
			sub.SetEventFilter(lifecycleEvents)
		}
		m.EventBus().Subscribe(sub)
	})

	monitor := monitoring.NewTickMonitor(log.Logger)
	monitor.Start()
	defer monitor.Stop()

	scheduler := match.NewScheduler(registry, cfg.TickInterval(), cfg.Server.Parallelism, log.Logger).
		WithMonitor(monitor)

	t := cfg.Server.Transport
	wsServer := ws.NewServer(registry, ws.Options{
		SendBuffer:      t.SendBuffer,
		OrdersPerSecond: t.OrdersPerSecond,
		OrderBurst:      t.OrderBurst,
		ReadLimit:       t.ReadLimit,
		PongWait:        time.Duration(t.PongWaitS) * time.Second,
		AllowedOrigins:  cfg.Server.HTTP.AllowedOrigins,
	}, log.Logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, port),
		Handler:           wsServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, healthServer := newAdminServer(cfg.Server.GRPC.EnableReflection)
	grpcLis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.GRPC.Host, cfg.Server.GRPC.Port))
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	config.WatchConfig(func(c *config.Config, err error) {
		if err != nil {
			log.Error().Err(err).Msg("Ignoring invalid config change")
			return
		}
		setLevel(c.Server.LogLevel)
		log.Info().Str("file", config.ConfigFilePath()).Msg("Config reloaded; new matches use the updated rules")
	})

	log.Info().
		Str("http", httpServer.Addr).
		Str("grpc", grpcLis.Addr().String()).
		Dur("tick_interval", cfg.TickInterval()).
		Int("max_matches", cfg.Server.MaxMatches).
		Str("results", cfg.Results.Driver).
		Msg("Starting FlagWars server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
		if err := grpcServer.Serve(grpcLis); err != nil {
			return fmt.Errorf("serve grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error { return scheduler.Run(gctx) })
	g.Go(func() error {
		registry.RunCleanup(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")

		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		time.Sleep(time.Duration(cfg.Server.GRPC.GracefulShutdownDelay) * time.Second)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("HTTP shutdown incomplete")
		}
		// Hijacked websocket connections are not tracked by http.Server.
		wsServer.Close()
		registry.Close()
		grpcServer.GracefulStop()
		return nil
	})

	err = g.Wait()
	m := monitor.Metrics()
	log.Info().
		Int64("beats", m.Beats).
		Int64("ticks", m.MatchesTicked).
		Int64("failures", m.Failures).
		Int64("overruns", m.Overruns).
		Msg("Final tick metrics")
	return err
}

func newAdminServer(enableReflection bool) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			loggingInterceptor,
			recoveryInterceptor,
		),
		grpc.ChainStreamInterceptor(
			streamLoggingInterceptor,
			streamRecoveryInterceptor,
		),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	if enableReflection {
		reflection.Register(grpcServer)
		log.Info().Msg("gRPC reflection enabled")
	}
	return grpcServer, healthServer
}

func setupLogging(level, format string) {
	setLevel(level)
	if format == "json" || os.Getenv("APP_ENV") == "production" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	})
}

func setLevel(level string) {
	l, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		l = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(l)
}
