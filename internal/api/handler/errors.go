package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marlow/watchdex/internal/repository"
)

// respondError translates a gateway/service failure into the API error
// contract: 404 for a missing target, 500 for everything else. The diagnostic
// message travels in the body; stack traces never do.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "record not found",
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// respondValidation reports a client-side input problem.
func respondValidation(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   msg,
	})
}
