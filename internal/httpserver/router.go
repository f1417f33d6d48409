package httpserver

import (
	"context"
	"log"

	"tillpoint/internal/domain"
	discountsvc "tillpoint/internal/service/discount"
	"tillpoint/internal/syncqueue"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DiscountService is the slice of the discount engine the transport needs.
type DiscountService interface {
	ListApplicable(ctx context.Context, q discountsvc.ApplicableQuery) ([]domain.Discount, error)
	Evaluate(ctx context.Context, id string, cart domain.Cart) (discountsvc.Evaluation, error)
	SelectBest(ctx context.Context, branchID string, cart domain.Cart) (discountsvc.BestResult, error)
	Apply(ctx context.Context, id string) (int, error)
	ResetUsage(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Discount, error)
	Create(ctx context.Context, in discountsvc.CreateInput) (*domain.Discount, error)
	CreateFlashSale(ctx context.Context, in discountsvc.FlashSaleInput) (*domain.Discount, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// SyncQueue is the slice of the offline queue the transport needs.
type SyncQueue interface {
	Enqueue(ctx context.Context, entityType string, op syncqueue.Operation, payload interface{}) (string, error)
	Drain(ctx context.Context) (syncqueue.DrainResult, error)
	Online() bool
}

// SyncCounts reports queue depth for the status endpoint.
type SyncCounts interface {
	Counts(ctx context.Context) (pending, synced int, err error)
}

type Deps struct {
	DiscountSvc DiscountService
	Queue       SyncQueue
	SyncStore   SyncCounts
	JWTSecret   string
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.Default())

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	v1 := router.Group("/v1")

	branch := v1.Group("/branches/:branchID")
	branch.GET("/discounts/applicable", listApplicableHandler(deps.DiscountSvc))
	branch.POST("/quote", quoteHandler(deps.DiscountSvc))
	branch.POST("/discounts/:id/evaluate", evaluateHandler(deps.DiscountSvc))
	branch.POST("/discounts/:id/apply", authRequired(deps.JWTSecret), applyHandler(deps.DiscountSvc))
	branch.POST("/sales", authRequired(deps.JWTSecret), recordSaleHandler(deps.Queue))

	admin := v1.Group("/discounts", authRequired(deps.JWTSecret), adminOnly())
	admin.GET("", listDiscountsHandler(deps.DiscountSvc))
	admin.POST("", createDiscountHandler(deps.DiscountSvc))
	admin.POST("/flash-sale", createFlashSaleHandler(deps.DiscountSvc))
	admin.POST("/:id/activate", setActiveHandler(deps.DiscountSvc, true))
	admin.POST("/:id/deactivate", setActiveHandler(deps.DiscountSvc, false))
	admin.POST("/:id/reset-usage", resetUsageHandler(deps.DiscountSvc))

	sync := v1.Group("/sync", authRequired(deps.JWTSecret))
	sync.GET("/status", syncStatusHandler(deps.Queue, deps.SyncStore))
	sync.POST("/drain", syncDrainHandler(deps.Queue))

	return router, nil
}
