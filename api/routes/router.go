package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Kunwar-bir-singh/Online-Assessment/api/controllers"
	"github.com/Kunwar-bir-singh/Online-Assessment/api/middleware"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/auth"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/orders"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/products"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/stream"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/auth/session"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/config"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/db"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/logger"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/metrics"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/redis"
)

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DBPinger       db.Pinger
	RedisPinger    redis.Pinger
	SessionManager session.AccessSessionChecker
	AuthService    auth.Service
	Products       products.Service
	Orders         orders.Service
	Hub            *stream.Hub
	Metrics        *metrics.Metrics
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.Metrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, p.RedisPinger))
	})

	r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))
			r.Post("/logout", controllers.AuthLogout(p.AuthService, logg))
		})
	})

	streamParams := controllers.StreamParams{
		Orders:   p.Orders,
		Hub:      p.Hub,
		Metrics:  p.Metrics,
		JWT:      cfg.JWT,
		Verifier: p.SessionManager,
		Logger:   logg,
	}

	r.Route("/api", func(r chi.Router) {
		// EventSource cannot send Authorization headers, so the stream
		// endpoints authenticate via ?token= instead of the middleware.
		r.Get("/orders/{orderId}/stream", controllers.OrderStreamSSE(streamParams))
		r.Get("/orders/{orderId}/ws", controllers.OrderStreamWS(streamParams))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductsList(p.Products, logg))
				r.Get("/{productId}", controllers.ProductsGet(p.Products, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.OrdersCreate(p.Orders, logg))
				r.Get("/", controllers.OrdersList(p.Orders, logg))
				r.Get("/{orderId}", controllers.OrdersDetail(p.Orders, logg))
				r.Patch("/{orderId}/status", controllers.OrdersUpdateStatus(p.Orders, logg))
			})
		})
	})

	return r
}
