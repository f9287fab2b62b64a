package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gigtally/tally_backend/models"
)

func listAlertsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var projectId *int
		if v := c.Query("project_id"); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil || id <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
				return
			}
			projectId = &id
		}

		alerts, err := models.ListActiveAlerts(c.Request.Context(), projectId)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"alerts": alerts})
	}
}

// dismissAlertHandler is the only way an active alert goes away. Dismissal
// is terminal for the current occurrence; the rule only alerts again after
// dropping back under its threshold and crossing it anew.
func dismissAlertHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		alert, err := models.DismissAlert(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, alert)
	}
}
