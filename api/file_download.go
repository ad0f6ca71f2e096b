package api

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileDownload serves a file with an attachment disposition so browsers
// save it under its original name instead of rendering it inline.
func (a *API) FileDownload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	abs, info, err := a.Root.ResolveFile(c.Query("path"))
	if err != nil {
		abortPathError(c, err)
		return
	}

	f, err := os.Open(abs)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Storage unavailable. Try again in a moment",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open file for download", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name()))
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}
