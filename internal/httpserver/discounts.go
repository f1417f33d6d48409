package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"tillpoint/internal/domain"
	discountsvc "tillpoint/internal/service/discount"

	"github.com/gin-gonic/gin"
)

func listApplicableHandler(svc DiscountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := discountsvc.ApplicableQuery{
			BranchID:  c.Param("branchID"),
			ProductID: c.Query("productId"),
		}
		if raw := c.Query("subtotalCents"); raw != "" {
			subtotal, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "subtotalCents must be an integer"})
				return
			}
			q.SubtotalCents = &subtotal
		}

		discounts, err := svc.ListApplicable(c.Request.Context(), q)
		if err != nil {
			respondError(c, err)
			return
		}
		if discounts == nil {
			discounts = []domain.Discount{}
		}
		c.JSON(http.StatusOK, gin.H{"results": discounts, "count": len(discounts)})
	}
}

func quoteHandler(svc DiscountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cart domain.Cart
		if err := c.ShouldBindJSON(&cart); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cart payload"})
			return
		}
		best, err := svc.SelectBest(c.Request.Context(), c.Param("branchID"), cart)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, best)
	}
}

func evaluateHandler(svc DiscountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cart domain.Cart
		if err := c.ShouldBindJSON(&cart); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cart payload"})
			return
		}
		ev, err := svc.Evaluate(c.Request.Context(), c.Param("id"), cart)
		if err != nil {
			respondError(c, err)
			return
		}
		// Ineligibility is a 200 with isValid=false and a reason.
		c.JSON(http.StatusOK, ev)
	}
}

func applyHandler(svc DiscountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		newCount, err := svc.Apply(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "newUsageCount": newCount})
	}
}

func listDiscountsHandler(svc DiscountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		discounts, err := svc.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if discounts == nil {
			discounts = []domain.Discount{}
		}
		c.JSON(http.StatusOK, gin.H{"results": discounts, "count": len(discounts)})
	}
}

func createDiscountHandler(svc DiscountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in discountsvc.CreateInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid discount payload"})
			return
		}
		created, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

func createFlashSaleHandler(svc DiscountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in discountsvc.FlashSaleInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flash sale payload"})
			return
		}
		created, err := svc.CreateFlashSale(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

func setActiveHandler(svc DiscountService, active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.SetActive(c.Request.Context(), c.Param("id"), active); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "isActive": active})
	}
}

func resetUsageHandler(svc DiscountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.ResetUsage(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "usageCount": 0})
	}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrUsageLimitExceeded):
		c.JSON(http.StatusConflict, gin.H{"error": "usage limit exceeded"})
	case errors.Is(err, domain.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
