package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/metrics"
)

// Sessions resolves the cart of a session id. release is called once the
// request is done with the store.
type Sessions interface {
	Acquire(ctx context.Context, id string) (store *cart.Store, release func(), err error)
}

type Deps struct {
	Logger   *zap.Logger
	Sessions Sessions
	Metrics  *metrics.Metrics

	Cookie           CookieOptions
	CORSAllowOrigins []string
	RequestTimeout   time.Duration
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   d.CORSAllowOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	h := NewCartHandler(d.RequestTimeout)
	r.Group(func(r chi.Router) {
		r.Use(Session(d.Sessions, d.Cookie, logger))

		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddItem)
			r.Delete("/items/{itemId}", h.RemoveItem)
			r.Post("/items/{itemId}/increment", h.IncrementItem)
			r.Post("/items/{itemId}/decrement", h.DecrementItem)
			r.Post("/checkout", h.Checkout)
		})
		r.Get("/order/{orderId}/success", h.OrderSuccess)
	})

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "cart-state"})
}
