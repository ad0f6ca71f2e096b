package api

import (
	"errors"
	"net/http"
	"os"

	"fileshare/media-api/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileDelete removes a single file under the media root. Editor role or
// above; directories can't be deleted through this endpoint.
func (a *API) FileDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	abs, _, err := a.Root.ResolveFile(c.Query("path"))
	if err != nil {
		abortPathError(c, err)
		return
	}

	unlock := lockPath(abs)
	err = os.Remove(abs)
	unlock()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete file", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type bulkDeleteBody struct {
	Paths []string `json:"paths"`
}

// FileBulkDelete removes a selection of files in one request. Paths that
// no longer exist are skipped and only the remainder counts as deleted,
// so a retry after a partial failure is harmless. A path that escapes
// the media root still fails the whole request.
func (a *API) FileBulkDelete(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data bulkDeleteBody
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

	deleted := 0

	for _, vp := range data.Paths {
		abs, _, err := a.Root.ResolveFile(vp)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			abortPathError(c, err)
			return
		}

		unlock := lockPath(abs)
		err = os.Remove(abs)
		unlock()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to delete file", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		deleted++
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": deleted})
}
