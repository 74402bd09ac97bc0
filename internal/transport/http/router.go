// Package http is the JSON transport of the premium engine.
package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries the handlers the router mounts. RateLimit, when
// set, guards the calculation endpoint only.
type RouterConfig struct {
	Catalog      *CatalogHandler
	Rules        *RulesHandler
	Linkage      *LinkageHandler
	Quote        *QuoteHandler
	RateLimit    gin.HandlerFunc
	AllowOrigins []string
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Observe())

	if len(cfg.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
		}))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	v1 := router.Group("/v1")
	{
		if cfg.RateLimit != nil {
			v1.POST("/quotes/calculate", cfg.RateLimit, cfg.Quote.Calculate)
		} else {
			v1.POST("/quotes/calculate", cfg.Quote.Calculate)
		}

		v1.GET("/products", cfg.Quote.ListProducts)
		v1.GET("/products/:id", cfg.Quote.GetProduct)
		v1.POST("/products/:id/links", cfg.Linkage.Link)
		v1.GET("/products/:id/links", cfg.Linkage.List)
		v1.PUT("/links/:id/primary", cfg.Linkage.SetPrimary)
		v1.DELETE("/links/:id", cfg.Linkage.Unlink)

		v1.POST("/rules", cfg.Rules.Create)
		v1.GET("/rules", cfg.Rules.List)
		v1.GET("/rules/:id", cfg.Rules.Get)
		v1.PUT("/rules/:id", cfg.Rules.Update)
		v1.DELETE("/rules/:id", cfg.Rules.Deactivate)

		v1.POST("/variables", cfg.Catalog.Create)
		v1.GET("/variables", cfg.Catalog.List)
		v1.GET("/variables/:code", cfg.Catalog.Get)
		v1.PATCH("/variables/:code", cfg.Catalog.Update)
		v1.DELETE("/variables/:code", cfg.Catalog.Deactivate)
	}

	return router
}
