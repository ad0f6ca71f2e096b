package api

import (
	"fmt"
	"net/http"
	"time"

	"fileshare/media-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type bulkDownloadBody struct {
	Paths []string `json:"paths"`
}

// FileBulkDownload streams the selected files as one zip. The archive is
// assembled on the fly, so the selection may be larger than memory.
//
// Policy: every path is validated before the first byte goes out, and one
// bad path fails the whole batch. Once streaming has begun, a read error
// aborts the response so the client gets a visibly broken archive rather
// than a quietly incomplete one.
func (a *API) FileBulkDownload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data bulkDownloadBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if len(data.Paths) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No files selected",
			"requestID": requestID,
		})
		return
	}

	entries, err := service.BuildArchiveEntries(a.Root, data.Paths)
	if err != nil {
		abortPathError(c, err)
		return
	}

	name := fmt.Sprintf("files-%s.zip", time.Now().Format("20060102-150405"))

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)

	if err := service.StreamZip(c.Writer, entries); err != nil {
		// Too late for a status code; the truncated body is the signal
		zap.L().Error("Bulk download aborted", zap.Error(err), zap.String("requestID", requestID))
		c.Abort()
		return
	}
}
