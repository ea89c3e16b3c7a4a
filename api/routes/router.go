package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avolkov/bookstore-storefront/api/controllers"
	"github.com/avolkov/bookstore-storefront/api/middleware"
	"github.com/avolkov/bookstore-storefront/internal/cart"
	"github.com/avolkov/bookstore-storefront/internal/catalog"
	"github.com/avolkov/bookstore-storefront/internal/favorites"
	"github.com/avolkov/bookstore-storefront/internal/orders"
	"github.com/avolkov/bookstore-storefront/pkg/config"
	"github.com/avolkov/bookstore-storefront/pkg/logger"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Registry  *prometheus.Registry
	Pingers   map[string]controllers.Pinger
	Catalog   catalog.Service
	Cart      cart.Service
	Favorites favorites.Service
	Orders    orders.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", controllers.SessionStart(cfg.Session, logg))

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Session(cfg.Session, logg),
				middleware.BearerToken(logg),
			)

			r.Get("/catalog", controllers.CatalogBrowse(deps.Catalog, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(deps.Cart, logg))
				r.Post("/items", controllers.CartAdd(deps.Cart, logg))
				r.Put("/items/{itemId}", controllers.CartSetQuantity(deps.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemove(deps.Cart, logg))
			})

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", controllers.FavoritesList(deps.Favorites, logg))
				r.Post("/{itemId}/toggle", controllers.FavoritesToggle(deps.Favorites, logg))
			})

			r.Post("/orders", controllers.OrderSubmit(deps.Orders, logg))
		})
	})

	return r
}
