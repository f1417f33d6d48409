package httpserver

import (
	"net/http"
	"time"

	"tillpoint/internal/domain"
	"tillpoint/internal/syncqueue"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// recordSaleHandler accepts a completed sale from a terminal and hands it to
// the offline queue. The write is acknowledged as soon as it is queued
// locally; replay to the central store happens whenever connectivity allows.
func recordSaleHandler(queue SyncQueue) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sale domain.Sale
		if err := c.ShouldBindJSON(&sale); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sale payload"})
			return
		}
		if sale.TotalCents < 0 || sale.DiscountCents < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amounts must not be negative"})
			return
		}
		sale.BranchID = c.Param("branchID")
		if sale.ID == "" {
			sale.ID = uuid.NewString()
		}
		if sale.CreatedAt.IsZero() {
			sale.CreatedAt = time.Now().UTC()
		}

		recordID, err := queue.Enqueue(c.Request.Context(), "sale", syncqueue.OpCreate, sale)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"saleId": sale.ID, "recordId": recordID})
	}
}
