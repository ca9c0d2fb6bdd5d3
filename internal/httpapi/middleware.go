package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/session"
)

type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// Session resolves the caller's cart from the session cookie and stores it
// in the request context. Requests without a valid cookie get a new session.
// When the stored state cannot be read the request fails with 503.
func Session(sessions Sessions, opts CookieOptions, logger *zap.Logger) func(http.Handler) http.Handler {
	if opts.Name == "" {
		opts.Name = "cart_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(opts.Name); err == nil && session.ValidID(c.Value) {
				id = c.Value
			}
			if id == "" {
				id = session.NewID()
				logger.Debug("session started", zap.String("session_id", id))
			}

			// refresh on every request so active sessions never expire
			http.SetCookie(w, &http.Cookie{
				Name:     opts.Name,
				Value:    id,
				Path:     "/",
				MaxAge:   int(opts.MaxAge.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			store, release, err := sessions.Acquire(r.Context(), id)
			if err != nil {
				logger.Error("resolve session", zap.String("session_id", id), zap.Error(err))
				writeError(w, http.StatusServiceUnavailable, "cart storage unavailable")
				return
			}
			defer release()
			next.ServeHTTP(w, r.WithContext(cart.WithAPI(r.Context(), store)))
		})
	}
}

func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
