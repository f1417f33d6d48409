package httpserver

import (
	"errors"
	"net/http"

	"tillpoint/internal/syncqueue"

	"github.com/gin-gonic/gin"
)

func syncStatusHandler(queue SyncQueue, store SyncCounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		pending, synced, err := store.Counts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"online":  queue.Online(),
			"pending": pending,
			"synced":  synced,
		})
	}
}

func syncDrainHandler(queue SyncQueue) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := queue.Drain(c.Request.Context())
		if err != nil {
			if errors.Is(err, syncqueue.ErrDrainInProgress) {
				c.JSON(http.StatusConflict, gin.H{"error": "drain already in progress"})
				return
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
