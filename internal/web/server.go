package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vitos/crypto_narratives/internal/domain"
	"github.com/vitos/crypto_narratives/internal/metrics"
	"github.com/vitos/crypto_narratives/internal/usecase"
)

// Server serves one dashboard: narratives or the derivatives tracker,
// depending on which service it was built with.
type Server struct {
	router     chi.Router
	server     *http.Server
	narratives *usecase.NarrativeService
	tracker    *usecase.TrackerService
	archive    domain.SnapshotArchive
	refresh    time.Duration
	upgrader   websocket.Upgrader
	metrics    *metrics.Metrics
	logger     *zap.Logger
	timeNow    func() time.Time // For testing
}

func NewNarrativeServer(
	port int,
	svc *usecase.NarrativeService,
	archive domain.SnapshotArchive,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	s := newServer(port, archive, m, logger)
	s.narratives = svc
	s.routes()
	return s
}

func NewTrackerServer(
	port int,
	svc *usecase.TrackerService,
	archive domain.SnapshotArchive,
	refresh time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	s := newServer(port, archive, m, logger)
	s.tracker = svc
	s.refresh = refresh
	s.routes()
	return s
}

func newServer(port int, archive domain.SnapshotArchive, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router:  chi.NewRouter(),
		archive: archive,
		metrics: m,
		logger:  logger,
		timeNow: time.Now,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	if s.narratives != nil {
		s.router.Get("/", s.handleNarrativeDashboard)
		s.router.Route("/api/narratives", func(r chi.Router) {
			r.Get("/", s.handleNarrativesJSON)
			r.Post("/refresh", s.handleNarrativesRefresh)
		})
		s.router.Get("/api/history", s.handleNarrativeHistory)
	}

	if s.tracker != nil {
		s.router.Get("/", s.handleTrackerDashboard)
		s.router.Get("/panels", s.handleTrackerPanels)
		s.router.Get("/ws", s.handleTrackerWS)
		s.router.Get("/api/snapshot", s.handleSnapshotJSON)
		s.router.Get("/api/history", s.handleDerivativesHistory)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
