package api

import (
	"errors"
	"net/http"

	"fileshare/media-api/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// abortPathError translates storage sentinel errors into responses that
// never leak a real filesystem path.
func abortPathError(c *gin.Context, err error) {
	requestID := c.MustGet("requestID").(string)

	switch {
	case errors.Is(err, storage.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":     "Access denied",
			"requestID": requestID,
		})
	case errors.Is(err, storage.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Not found",
			"requestID": requestID,
		})
	case errors.Is(err, storage.ErrStorageUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Storage unavailable. Try again in a moment",
			"requestID": requestID,
		})

		zap.L().Error("Storage unavailable", zap.String("requestID", requestID))
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Unexpected storage error", zap.Error(err), zap.String("requestID", requestID))
	}
}
