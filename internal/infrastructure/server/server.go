package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/embedhost/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/domain/embed"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/embedhost/internal/platform/native"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and the embedding coordinator
type Server struct {
	router  *gin.Engine
	http    *http.Server
	coord   *embed.Coordinator
	tracer  *tracing.Tracer
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// Deps lets callers substitute the native layer, mainly in tests.
type Deps struct {
	Bridge   embed.Bridge
	Launcher embed.Launcher
	Logger   *logging.Logger
	Registry *prometheus.Registry
}

// NewServer creates a server backed by the platform window manager.
func NewServer(cfg *config.Config) (*Server, error) {
	return NewServerWithDeps(cfg, Deps{})
}

// NewServerWithDeps creates a server, filling any zero Deps field with the
// production implementation.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	logger.Info("Initializing embed host",
		zap.String("addr", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
		zap.String("executable", cfg.Embed.Executable),
		zap.String("title_fragment", cfg.Embed.TitleFragment),
	)

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	metrics := monitoring.NewMetrics(reg)

	bridge := deps.Bridge
	if bridge == nil {
		bridge = native.NewBridge()
	}

	launcher := deps.Launcher
	if launcher == nil {
		args := cfg.Embed.Args
		if len(args) == 0 {
			args = embed.DefaultEditorArgs
		}
		launcher = embed.NewProcessLifecycle(embed.ProcessConfig{
			Executable:    cfg.Embed.Executable,
			Args:          args,
			WorkspaceRoot: cfg.Embed.WorkspaceRoot,
			Env:           cfg.Embed.Env,
		}, bridge, logger.Component("process"))
	}

	guard := resilience.New("launch", resilience.Settings{
		Timeout: cfg.Embed.GuardTimeout,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Embed.GuardFailures
		},
		// A launch abandoned by its caller says nothing about the executable.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Launch guard state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})

	coord := embed.NewCoordinator(bridge, launcher, coordinatorConfig(cfg.Embed)).
		WithLogger(logger.Logger).
		WithObserver(monitoring.NewEmbedMetrics(metrics)).
		WithGuard(guard)

	if cfg.Embed.HostHandle != "" {
		host, err := native.ParseHandle(cfg.Embed.HostHandle)
		if err != nil {
			_ = coord.Close()
			return nil, fmt.Errorf("invalid EMBED_HOST_HANDLE: %w", err)
		}
		coord.SetHost(host)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	tracer := tracing.New("embedhost", logger.Component("trace"))

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(middleware.BodyLimit(middleware.MaxJSONSize))
	router.Use(middleware.RequestLogger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.Server.AllowOrigins
	router.Use(middleware.CORS(corsCfg))

	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(coord, cfg.Embed.ResizeDebounce, metrics, logger.Component("api"))
	handlers.Register(router)

	stream := ws.NewHandler(coord.Events(), coord.Info, cfg.Server.AllowOrigins, metrics, logger.Component("ws"))
	router.GET("/embed/events", stream.HandleConnection)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	router.GET("/log/level", gin.WrapH(logger.LevelHandler()))
	router.PUT("/log/level", gin.WrapH(logger.LevelHandler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		coord:   coord,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func coordinatorConfig(e config.EmbedConfig) embed.Config {
	return embed.Config{
		PrimaryAttempts:  e.PrimaryAttempts,
		PrimaryDelay:     e.PrimaryDelay,
		FallbackFragment: e.TitleFragment,
		FallbackAttempts: e.FallbackAttempts,
		FallbackDelay:    e.FallbackDelay,
		SettleDelay:      e.SettleDelay,
		EnforcePeriod:    e.EnforcePeriod,
		WaitPollInterval: e.WaitPollInterval,
		WaitTimeout:      e.WaitTimeout,
	}
}

// Handler returns the router, for tests and embedding in another server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops accepting requests, detaches the embedded editor and flushes
// the logger.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to shut down http server: %w", err))
	}

	// Detach is best-effort; a partial detach still releases the session.
	if err := s.coord.Close(); err != nil {
		s.logger.Warn("Embedded editor not fully detached", zap.Error(err))
	}
	s.logger.Info("Embedded editor detached")
	s.tracer.Close()

	if err := s.logger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to sync logger: %w", err))
	}
	return errors.Join(errs...)
}
