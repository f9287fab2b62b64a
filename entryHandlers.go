package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gigtally/tally_backend/extraction"
	"github.com/gigtally/tally_backend/models"
	"github.com/gigtally/tally_backend/workflow"
)

type extractRequest struct {
	Text string `json:"text" binding:"required"`
}

type reconcileRequest struct {
	Entries []models.CandidateEntry `json:"entries" binding:"required"`
	Action  string                  `json:"action" binding:"required"`
	EntryId string                  `json:"entryId"`

	// setProject
	ProjectId int `json:"projectId"`

	// setField
	Field string `json:"field"`
	Value string `json:"value"`
}

type commitRequest struct {
	Entries []models.CandidateEntry `json:"entries" binding:"required"`
}

func candidateSessionResponse(entries []models.CandidateEntry) gin.H {
	return gin.H{
		"entries":   entries,
		"canCommit": models.CanCommitAll(entries),
	}
}

// extractHandler sends raw text to the extraction service and returns the
// matched candidate session. Review happens client-side against this list;
// nothing is persisted until commit.
func extractHandler(extractor *extraction.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if extractor == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "extraction service not configured"})
			return
		}

		var req extractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		raw, err := extractor.Extract(c.Request.Context(), req.Text)
		if err != nil {
			writeError(c, err)
			return
		}

		directory, err := models.GetProjectDirectory(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}

		entries := models.AttachProjects(extraction.ToCandidates(raw, time.Now()), directory)
		c.JSON(http.StatusOK, candidateSessionResponse(entries))
	}
}

// reconcileHandler applies one reviewer mutation to a candidate session and
// returns the updated session. The session is client-held state; every
// mutation is a pure transition so replaying it is always safe.
func reconcileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reconcileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		var (
			entries []models.CandidateEntry
			err     error
		)
		switch req.Action {
		case "setProject":
			if verr := validateProjectChoice(c, req.ProjectId); verr != nil {
				writeError(c, verr)
				return
			}
			entries, err = models.SetCandidateProject(req.Entries, req.EntryId, req.ProjectId)
		case "setField":
			entries, err = models.SetCandidateField(req.Entries, req.EntryId, models.CandidateField(req.Field), req.Value)
		case "remove":
			entries, err = models.RemoveCandidate(req.Entries, req.EntryId)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, candidateSessionResponse(entries))
	}
}

// validateProjectChoice rejects manual overrides pointing at projects the
// caller does not own or that do not exist.
func validateProjectChoice(c *gin.Context, projectId int) error {
	_, err := models.GetProject(c.Request.Context(), projectId)
	return err
}

// commitHandler turns a save-ready session into persisted records in one
// transaction, then re-evaluates scope rules for every touched project.
// Alert evaluation is best effort and never rolls the commit back.
func commitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req commitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		inputs, err := models.ToTimeRecordInputs(req.Entries)
		if err != nil {
			writeError(c, err)
			return
		}

		result, err := models.CommitTimeRecords(c.Request.Context(), inputs)
		if err != nil {
			writeError(c, err)
			return
		}

		evaluations := workflow.EvaluateProjects(c.Request.Context(), result.ProjectIds)
		c.JSON(http.StatusCreated, gin.H{
			"result":      result,
			"evaluations": evaluations,
		})
	}
}
