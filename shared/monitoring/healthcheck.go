package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// HealthServer serves /health and /status plus any routes agents mount on Router.
type HealthServer struct {
	monitor *Monitor
	port    string
	router  *mux.Router
}

func NewHealthServer(monitor *Monitor, port string) *HealthServer {
	if port == "" {
		port = "8080"
	}
	h := &HealthServer{
		monitor: monitor,
		port:    port,
		router:  mux.NewRouter(),
	}
	h.router.HandleFunc("/health", h.healthHandler).Methods(http.MethodGet)
	h.router.HandleFunc("/status", h.statusHandler).Methods(http.MethodGet)
	return h
}

// Router exposes the underlying router for additional routes.
func (h *HealthServer) Router() *mux.Router {
	return h.router
}

// Handler returns the fully wrapped HTTP handler.
func (h *HealthServer) Handler() http.Handler {
	return handlers.RecoveryHandler()(handlers.CombinedLoggingHandler(log.Logger, h.router))
}

// Start serves in the background until ctx is cancelled, then drains requests.
func (h *HealthServer) Start(ctx context.Context) {
	srv := &http.Server{
		Addr:         ":" + h.port,
		Handler:      h.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // uploads are analyzed synchronously
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("port", h.port).Msg("Health check server starting")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Health server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Health server shutdown failed")
		}
	}()
}

func (h *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if h.monitor.IsHealthy() {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK - %s", h.monitor.GetStatusSummary())
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "Service unhealthy - %s", h.monitor.GetStatusSummary())
	}
}

func (h *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s", h.monitor.GetStatusSummary())
}
