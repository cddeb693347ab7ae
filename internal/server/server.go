package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"pdgupta/website/internal/server/api"
	"pdgupta/website/internal/server/pages"
)

// Handlers groups everything the router serves.
type Handlers struct {
	Pages  *pages.Pages
	Latest *api.LatestHandler
	Forms  *api.FormHandler
	// FormLimiter guards the form endpoint. Nil disables limiting.
	FormLimiter  *RateLimiter
	MetricsToken string
}

// NewHandler builds the router and wraps it in the middleware chain.
func NewHandler(hs Handlers, logger zerolog.Logger) http.Handler {
	var form http.Handler = http.HandlerFunc(hs.Forms.PostForm)
	if hs.FormLimiter != nil {
		form = hs.FormLimiter.Middleware(form)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", hs.Pages.Home)
	mux.HandleFunc("GET /post", hs.Pages.PostIndex)
	mux.HandleFunc("GET /post/{slug}", hs.Pages.Post)
	mux.HandleFunc("GET /api/latest-updates", hs.Latest.GetLatest)
	mux.Handle("POST /api/form-submit", form)
	mux.HandleFunc("GET /health", healthCheckHandler)
	mux.Handle("GET /metrics", tokenMiddleware(hs.MetricsToken)(promhttp.Handler()))
	mux.HandleFunc("/", hs.Pages.NotFound)

	if hs.MetricsToken != "" {
		logger.Info().Msg("Metrics token authentication enabled")
	}

	// Set up middleware chain for logging and request tracking
	h := securityHeaders(mux)
	h = hlog.NewHandler(logger)(h)
	h = hlog.MethodHandler("method")(h)
	h = hlog.URLHandler("url")(h)
	h = hlog.RemoteAddrHandler("remote_addr")(h)
	h = hlog.UserAgentHandler("user_agent")(h)
	h = hlog.RequestIDHandler("req_id", "Request-Id")(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		idReq, _ := hlog.IDFromRequest(r)

		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Str("req_id", idReq.String()).
			Msg("HTTP Request")
	})(h)
	return h
}

// RunServer serves h on listenAddr until ctx is cancelled, then shuts down
// gracefully.
func RunServer(ctx context.Context, h http.Handler, listenAddr string, logger zerolog.Logger) error {
	logger = logger.With().Str("service", "website").Logger()

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("address", listenAddr).Msg("HTTP server starting")
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
		return nil

	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
			if err := httpServer.Close(); err != nil {
				logger.Error().Err(err).Msg("HTTP server force close error")
			}
		} else {
			logger.Info().Msg("HTTP server shutdown complete.")
		}
		if err := <-serverErr; err != nil {
			logger.Error().Err(err).Msg("ListenAndServe error during shutdown")
		}
	}

	logger.Info().Msg("Server exiting.")
	return nil
}

// healthCheckHandler responds to health check requests with a simple 200 OK.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Error().Err(err).Msg("Error writing health check response")
	}
}
