package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/courtier-app/premiumservice/internal/catalog"
	catalogpg "github.com/courtier-app/premiumservice/internal/catalog/postgres"
	"github.com/courtier-app/premiumservice/internal/engine"
	"github.com/courtier-app/premiumservice/internal/linkage"
	linkagepg "github.com/courtier-app/premiumservice/internal/linkage/postgres"
	"github.com/courtier-app/premiumservice/internal/metrics"
	"github.com/courtier-app/premiumservice/internal/product"
	productpg "github.com/courtier-app/premiumservice/internal/product/postgres"
	"github.com/courtier-app/premiumservice/internal/quote"
	"github.com/courtier-app/premiumservice/internal/ratelimit"
	"github.com/courtier-app/premiumservice/internal/rules"
	rulespg "github.com/courtier-app/premiumservice/internal/rules/postgres"
	"github.com/courtier-app/premiumservice/internal/shared/cache"
	"github.com/courtier-app/premiumservice/internal/shared/config"
	"github.com/courtier-app/premiumservice/internal/shared/db"
	"github.com/courtier-app/premiumservice/internal/shared/log"
	transport "github.com/courtier-app/premiumservice/internal/transport/http"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	if err := log.Init(cfg.Log.Level); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		catalogRepo catalog.Repository
		rulesRepo   rules.Repository
		productRepo product.Repository
		linkRepo    linkage.Repository
	)

	if cfg.Postgres.DSN != "" {
		pool, err := db.NewPool(ctx, &db.Config{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			stdlog.Fatalf("Failed to create database pool: %v", err)
		}
		defer pool.Close()

		if catalogRepo, err = catalogpg.NewStore(pool.Pool); err != nil {
			stdlog.Fatalf("Failed to create catalog store: %v", err)
		}
		if rulesRepo, err = rulespg.NewStore(pool.Pool); err != nil {
			stdlog.Fatalf("Failed to create rules store: %v", err)
		}
		if productRepo, err = productpg.NewStore(pool.Pool); err != nil {
			stdlog.Fatalf("Failed to create product store: %v", err)
		}
		if linkRepo, err = linkagepg.NewStore(pool.Pool); err != nil {
			stdlog.Fatalf("Failed to create linkage store: %v", err)
		}
	} else {
		// In-memory stores for local development without Postgres.
		log.Warn(ctx, "No Postgres DSN configured, using in-memory stores")
		catalogRepo = catalog.NewMemoryStore()
		rulesRepo = rules.NewMemoryStore()
		productRepo = product.NewMemoryStore()
		linkRepo = linkage.NewMemoryStore()
	}

	var c *cache.Cache
	if cfg.Redis.Enabled {
		c, err = cache.New(cfg.Redis.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			stdlog.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer c.Close()
	}

	catalogSvc := catalog.NewService(catalogRepo, c, cfg.Engine.CatalogCacheTTL)
	rulesSvc := rules.NewService(rulesRepo, c, cfg.Engine.RuleCacheTTL)
	linkSvc := linkage.NewService(linkRepo)
	quoteSvc := quote.NewService(productRepo, linkSvc, rulesSvc, catalogSvc, c, cfg.Engine.CatalogCacheTTL,
		engine.NewOptions(cfg.Engine.HighRiskLocations, cfg.Engine.HighPropertyValueThreshold))

	var rateLimitMW gin.HandlerFunc
	if c != nil && cfg.RateLimit.Enabled {
		rlConfig := ratelimit.Config{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			Window:            cfg.RateLimit.Window,
			Enabled:           true,
		}
		rateLimitMW = ratelimit.Middleware(ratelimit.NewRedisLimiter(c.Client(), rlConfig), rlConfig)
	}

	router := transport.NewRouter(transport.RouterConfig{
		Catalog:      transport.NewCatalogHandler(catalogSvc),
		Rules:        transport.NewRulesHandler(rulesSvc),
		Linkage:      transport.NewLinkageHandler(linkSvc),
		Quote:        transport.NewQuoteHandler(quoteSvc, productRepo),
		RateLimit:    rateLimitMW,
		AllowOrigins: cfg.Server.AllowOrigins,
	})

	metricsServer := metrics.NewServer(addr(cfg.Metrics.Port), log.L(ctx))
	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			log.Error(ctx, "Metrics server failed", zap.Error(err))
		}
	}()

	httpServer := &http.Server{
		Addr:         addr(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		log.Info(ctx, "Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "HTTP server shutdown failed", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "Metrics server shutdown failed", zap.Error(err))
	}
}

func addr(port int) string {
	return fmt.Sprintf(":%d", port)
}
