package api

import (
	"net/http"
	"path"

	"fileshare/media-api/service"
	"fileshare/media-api/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileVideoInfo probes a video's codec and tells the client whether the
// compat stream is needed and possible. The client calls this lazily,
// only after native playback already failed.
func (a *API) FileVideoInfo(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	vpath := c.Query("path")

	abs, _, err := a.Root.ResolveFile(vpath)
	if err != nil {
		abortPathError(c, err)
		return
	}

	if storage.Classify(path.Base(vpath)) != storage.FileVideo {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Not a video file",
			"requestID": requestID,
		})
		return
	}

	// No prober means no codec verdict; report availability instead of
	// failing so deployments without the ffmpeg suite still get an answer
	if !service.ProberAvailable() {
		c.JSON(http.StatusOK, gin.H{
			"codec":            "unknown",
			"needs_transcode":  false,
			"ffmpeg_available": service.FFmpegAvailable(),
		})
		return
	}

	codec, err := service.ProbeCodec(c.Request.Context(), abs)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error":     "Failed to probe video",
			"requestID": requestID,
		})

		zap.L().Error("FFprobe failed", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"codec":            codec,
		"needs_transcode":  service.NeedsTranscode(codec),
		"ffmpeg_available": service.FFmpegAvailable(),
	})
}
