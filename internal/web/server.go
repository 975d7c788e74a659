package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vitos/perp_leverage_bot/internal/domain"
	"github.com/vitos/perp_leverage_bot/internal/metrics"
	"github.com/vitos/perp_leverage_bot/internal/usecase"
	"go.uber.org/zap"
)

// Server is the JSON query surface polled by external dashboards. It never
// mutates the session.
type Server struct {
	router    *http.ServeMux
	server    *http.Server
	session   *usecase.TradingSession
	worker    *usecase.BotWorker
	tradeRepo domain.TradeRepository
	logger    *zap.Logger
}

func NewServer(
	port int,
	session *usecase.TradingSession,
	worker *usecase.BotWorker,
	tradeRepo domain.TradeRepository,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:    http.NewServeMux(),
		session:   session,
		worker:    worker,
		tradeRepo: tradeRepo,
		logger:    logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Status
	s.router.HandleFunc("GET /status", s.handleStatus)

	// Trade history
	s.router.HandleFunc("GET /api/history", s.handleHistory)
	s.router.HandleFunc("GET /api/trades", s.handleTrades)

	// Win rate
	s.router.HandleFunc("GET /api/winrate", s.handleWinRate)

	// Prometheus
	s.router.Handle("GET /metrics", metrics.Handler())
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
