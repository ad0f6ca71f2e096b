package api

import (
	"net/http"
	"path"

	"fileshare/media-api/storage"

	"github.com/gin-gonic/gin"
)

// FileThumbnail serves the cached thumbnail for an image. A 404 here is
// the signal for the client to show its generic type icon instead; it
// never fails the listing the tile belongs to.
func (a *API) FileThumbnail(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	vpath := c.Query("path")

	abs, _, err := a.Root.ResolveFile(vpath)
	if err != nil {
		abortPathError(c, err)
		return
	}

	if storage.Classify(path.Base(vpath)) != storage.FileImage {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "No thumbnail available",
			"requestID": requestID,
		})
		return
	}

	thumb, err := a.Thumbs.Get(abs)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "No thumbnail available",
			"requestID": requestID,
		})
		return
	}

	c.Header("Cache-Control", "private, max-age=3600")
	c.File(thumb)
}
