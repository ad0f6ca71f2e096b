package api

import (
	"net/http"
	"slices"
	"strings"

	"fileshare/media-api/storage"

	"github.com/gin-gonic/gin"
)

var validTypeFilters = []string{"all", "image", "video", "other"}

// FileList returns one directory of the media root, optionally searched,
// filtered by file type and sorted. Never touches any other directory.
func (a *API) FileList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	sort := strings.ToLower(c.DefaultQuery("sort", "name"))
	if !slices.Contains(storage.ValidSortOpts, sort) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid sorting option",
			"requestID": requestID,
		})
		return
	}

	typeFilter := strings.ToLower(c.DefaultQuery("file_type", "all"))
	if !slices.Contains(validTypeFilters, typeFilter) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid file type filter",
			"requestID": requestID,
		})
		return
	}

	opts := storage.ListOptions{
		Search: c.Query("search"),
		Sort:   sort,
	}
	if typeFilter != "all" {
		opts.Type = storage.FileType(typeFilter)
	}

	listing, err := a.Root.List(c.DefaultQuery("path", "/"), opts)
	if err != nil {
		abortPathError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}
