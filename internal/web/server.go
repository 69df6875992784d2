package web

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/abacus/internal/config"
	"github.com/hpungsan/abacus/internal/metrics"
	"github.com/hpungsan/abacus/internal/ops"
)

// NewRouter builds the full handler chain: request logging, metrics, CORS,
// security headers, then routing.
func NewRouter(repo *ops.Repository, pinger Pinger, cfg *config.Config, log logrus.FieldLogger) http.Handler {
	h := NewHandlers(repo, pinger, log)

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /api/calculations", h.HandleList)
	mux.HandleFunc("POST /api/calculations", h.HandleCreate)
	mux.HandleFunc("DELETE /api/calculations", h.HandleClear)
	mux.HandleFunc("/api/", h.HandleAPINotFound)
	mux.HandleFunc("/api", h.HandleAPINotFound)

	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	// Everything else is the frontend bundle
	mux.Handle("/", newStaticHandler(cfg.StaticDir))

	var handler http.Handler = mux
	handler = securityHeaders(handler)
	handler = withCORS(cfg.CORSOrigin, handler)
	handler = metrics.InstrumentHandler(handler)
	handler = withRequestLogging(log, handler)
	return handler
}

// NewServer creates and configures the HTTP server for the calculations API.
func NewServer(repo *ops.Repository, pinger Pinger, cfg *config.Config, log logrus.FieldLogger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(repo, pinger, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, log logrus.FieldLogger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.WithField("addr", srv.Addr).Info("abacus listening")

	if strings.HasPrefix(srv.Addr, "0.0.0.0") || strings.HasPrefix(srv.Addr, "[::]") || strings.HasPrefix(srv.Addr, ":") {
		log.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
