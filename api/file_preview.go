package api

import (
	"errors"
	"net/http"
	"os"

	"fileshare/media-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FilePreview streams a file inline. Plain requests go through
// http.ServeContent, which handles Range/206 semantics exactly — that's
// what makes video seeking and progressive loading work. With compat=1
// the response is a live ffmpeg re-encode instead (no ranges there, the
// output length isn't known up front).
func (a *API) FilePreview(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	abs, info, err := a.Root.ResolveFile(c.Query("path"))
	if err != nil {
		abortPathError(c, err)
		return
	}

	if c.Query("compat") == "1" {
		a.servePreviewCompat(c, abs)
		return
	}

	f, err := os.Open(abs)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Storage unavailable. Try again in a moment",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open file for preview", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer f.Close()

	c.Header("Accept-Ranges", "bytes")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

func (a *API) servePreviewCompat(c *gin.Context, abs string) {
	requestID := c.MustGet("requestID").(string)

	if !service.FFmpegAvailable() {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Transcoding is not available on this server",
			"requestID": requestID,
		})
		return
	}

	job := service.NewTranscodeJob(abs)

	c.Header("Content-Type", "video/mp4")

	// Bound to the request context: a client disconnect kills ffmpeg
	err := job.Run(c.Request.Context(), c.Writer)
	if err != nil {
		if errors.Is(err, service.ErrTranscodeRejected) {
			// Codec plays natively, point the client back at the
			// regular preview stream. No bytes were written yet, so
			// the content type can still be corrected
			c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error":     "File does not need transcoding",
				"requestID": requestID,
			})
			return
		}

		// Headers may already be out; all that's left is to log and
		// let the aborted body signal the failure
		zap.L().Error("Compat stream failed",
			zap.Error(err),
			zap.String("state", string(job.State())),
			zap.String("requestID", requestID),
		)
		c.Abort()
		return
	}
}
