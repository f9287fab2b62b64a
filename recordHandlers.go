package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gigtally/tally_backend/models"
	"github.com/gigtally/tally_backend/utils"
	"github.com/gigtally/tally_backend/workflow"
)

func listTimeRecordsHandler() gin.HandlerFunc {
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
		fromDate := utils.NilIfEmpty(c.Query("from"))
		toDate := utils.NilIfEmpty(c.Query("to"))

		records, err := models.ListTimeRecords(c.Request.Context(), projectId, fromDate, toDate)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	}
}

func getTimeRecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		record, err := models.GetTimeRecord(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

// updateTimeRecordHandler edits a committed record. Edits move the project's
// aggregates, so scope rules are re-run for the touched project the same way
// a commit would.
func updateTimeRecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		var input models.TimeRecordInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		record, err := models.UpdateTimeRecord(c.Request.Context(), id, &input)
		if err != nil {
			writeError(c, err)
			return
		}
		evaluations := workflow.EvaluateProjects(c.Request.Context(), []int{record.ProjectId})
		c.JSON(http.StatusOK, gin.H{"record": record, "evaluations": evaluations})
	}
}

func deleteTimeRecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		record, err := models.DeleteTimeRecord(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		// Rules never clear alerts on their own, but a delete can move a
		// rule back under threshold, which must be recorded so a later
		// re-cross alerts again.
		evaluations := workflow.EvaluateProjects(c.Request.Context(), []int{record.ProjectId})
		c.JSON(http.StatusOK, gin.H{"record": record, "evaluations": evaluations})
	}
}
