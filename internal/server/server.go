package server

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/logger"
)

const readHeaderTimeout = 5 * time.Second

type config interface {
	ListenAddr() string
}

type Server struct {
	httpServer *http.Server
}

func New(config config, service expenseService, health healthChecker) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              config.ListenAddr(),
			Handler:           NewHandler(service, health),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

// NewHandler builds the routing table for the expense API.
func NewHandler(service expenseService, health healthChecker) http.Handler {
	h := &handlers{service: service, health: health}
	mux := http.NewServeMux()

	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"POST /expenses", h.createExpense},
		{"POST /expenses/{$}", h.createExpense},
		{"GET /expenses", h.listExpenses},
		{"GET /expenses/{$}", h.listExpenses},
		{"GET /expenses/stats", h.stats},
		{"GET /expenses/{id}", h.getExpense},
		{"PUT /expenses/{id}", h.updateExpense},
		{"DELETE /expenses/{id}", h.deleteExpense},
		{"GET /healthz", h.healthz},
	}
	for _, route := range routes {
		mux.HandleFunc(route.pattern, instrument(route.pattern, route.handler))
	}
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (s *Server) Serve() error {
	logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve http")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	logger.Info("http server stopped")
	return errors.Wrap(err, "shutdown http")
}
