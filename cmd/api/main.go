package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/avolkov/bookstore-storefront/api/controllers"
	"github.com/avolkov/bookstore-storefront/api/routes"
	"github.com/avolkov/bookstore-storefront/internal/cart"
	"github.com/avolkov/bookstore-storefront/internal/catalog"
	"github.com/avolkov/bookstore-storefront/internal/favorites"
	"github.com/avolkov/bookstore-storefront/internal/orders"
	"github.com/avolkov/bookstore-storefront/internal/upstream"
	"github.com/avolkov/bookstore-storefront/pkg/config"
	"github.com/avolkov/bookstore-storefront/pkg/logger"
	"github.com/avolkov/bookstore-storefront/pkg/metrics"
	"github.com/avolkov/bookstore-storefront/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	upstreamMetrics := metrics.NewUpstreamMetrics(registry)

	storeClient, err := upstream.NewClient(cfg.Upstream, upstream.WithMetrics(upstreamMetrics))
	if err != nil {
		logg.Error(context.Background(), "failed to create item store client", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Fetcher:          storeClient,
		Cache:            catalog.NewRedisPageCache(redisClient, cfg.Catalog.CacheTTL),
		Metrics:          upstreamMetrics,
		Logger:           logg,
		NewReleasesToken: cfg.Catalog.NewReleasesToken,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Store:  cart.NewStore(),
		Items:  storeClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	favoritesService, err := favorites.NewService(favorites.ServiceParams{
		Profiles: storeClient,
		Mutator:  storeClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create favorites service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Submitter: storeClient,
		Cart:      cartService,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			Registry: registry,
			Pingers: map[string]controllers.Pinger{
				"redis":      redisClient,
				"item_store": storeClient,
			},
			Catalog:   catalogService,
			Cart:      cartService,
			Favorites: favoritesService,
			Orders:    orderService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "storefront server stopped unexpectedly", err)
		os.Exit(1)
	}
}
