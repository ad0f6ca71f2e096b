package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) DirStats(c *gin.Context) {
	stats, err := a.Root.Stats(c.DefaultQuery("path", "/"))
	if err != nil {
		abortPathError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
