package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gigtally/tally_backend/utils"
)

// writeError maps domain errors onto HTTP responses. Validation failures
// carry the field name and, for batch commits, the index of the offending
// entry so the client can highlight it without guessing.
func writeError(c *gin.Context, err error) {
	if ve, ok := utils.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      ve.Message,
			"field":      ve.Field,
			"entryIndex": ve.EntryIndex,
		})
		return
	}

	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, utils.ErrorRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "extraction quota exceeded, try again later"})
	case errors.Is(err, utils.ErrorAlreadyActive):
		c.JSON(http.StatusConflict, gin.H{"error": "alert already active"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseIdParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
