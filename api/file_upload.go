package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// One lock per destination path so concurrent writes to the same name
// can't tear each other, without serializing unrelated uploads
var pathLocks sync.Map

func lockPath(p string) func() {
	v, _ := pathLocks.LoadOrStore(p, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// FileUpload stores multipart files into the directory named by ?path=.
// Editor role or above; existing files are never overwritten.
func (a *API) FileUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	destDir, _, err := a.Root.ResolveDir(c.DefaultQuery("path", "/"))
	if err != nil {
		abortPathError(c, err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid multipart form",
			"requestID": requestID,
		})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	uploaded := make([]gin.H, 0, len(files))

	for _, fh := range files {
		// Base strips any path segments a hostile client sneaks into
		// the filename field. ".." survives Base and would name the
		// parent directory, so it gets rejected outright
		name := filepath.Base(filepath.Clean(fh.Filename))
		if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Invalid file name",
				"requestID": requestID,
			})
			return
		}

		dest := filepath.Join(destDir, name)
		unlock := lockPath(dest)

		err := saveUpload(fh, dest)
		unlock()
		if err != nil {
			if os.IsExist(err) {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"error":     "A file with this name already exists",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to store upload", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		uploaded = append(uploaded, gin.H{
			"name": name,
			"size": fh.Size,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"uploaded": uploaded,
		"count":    len(uploaded),
	})
}

func saveUpload(fh *multipart.FileHeader, dest string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	// O_EXCL keeps the media tree append-only from this endpoint
	dst, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		os.Remove(dest)
	}
	return err
}
