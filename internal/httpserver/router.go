package httpserver

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salesorder-api/internal/domain"
	"salesorder-api/internal/metrics"
)

type salesOrderService interface {
	List(ctx context.Context) ([]domain.SalesOrder, error)
	Get(ctx context.Context, id int64) (*domain.SalesOrder, error)
	Create(ctx context.Context, order domain.SalesOrder) (*domain.SalesOrder, error)
	Update(ctx context.Context, id int64, order domain.SalesOrder, expectedVersion *int) (*domain.SalesOrder, error)
	Delete(ctx context.Context, id int64) error
}

type customerService interface {
	List(ctx context.Context) ([]domain.Customer, error)
	Get(ctx context.Context, id int64) (*domain.Customer, error)
}

// Deps bundles the services and settings the router needs.
type Deps struct {
	SalesOrderSvc  salesOrderService
	CustomerSvc    customerService
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db pinger, deps Deps) (*gin.Engine, error) {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestIDMiddleware(), accessLogMiddleware(logger), recoveryMiddleware(logger))
	router.Use(metrics.GinMiddleware(deps.Metrics))
	if c := corsMiddleware(deps.AllowedOrigins); c != nil {
		router.Use(c)
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	api := router.Group("/api")
	if deps.SalesOrderSvc != nil {
		h := &salesOrderHandler{svc: deps.SalesOrderSvc, logger: logger}
		api.GET("/salesorders", h.list)
		api.GET("/salesorders/:id", h.get)
		api.POST("/salesorders", h.create)
		api.PUT("/salesorders/:id", h.update)
		api.DELETE("/salesorders/:id", h.delete)
	}
	if deps.CustomerSvc != nil {
		h := &customerHandler{svc: deps.CustomerSvc, logger: logger}
		api.GET("/customers", h.list)
		api.GET("/customers/:id", h.get)
	}

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return nil
	}
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "If-Match", "X-Request-Id"},
		ExposeHeaders: []string{"Location", "ETag", "X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}
