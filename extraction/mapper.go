package extraction

import (
	"strings"
	"time"

	"github.com/gigtally/tally_backend/models"
	"github.com/gigtally/tally_backend/utils"
)

// ToCandidates normalizes upstream guesses into reviewable candidates.
// Every field is re-validated here: a bad category falls back to "other"
// with a warning, a bad date falls back to today with a warning, and an
// out-of-range duration is dropped so the reviewer is asked again. Project
// matching happens afterwards via models.AttachProjects.
func ToCandidates(raw []RawCandidate, now time.Time) []models.CandidateEntry {
	out := make([]models.CandidateEntry, 0, len(raw))
	for _, r := range raw {
		e := models.CandidateEntry{
			Id:              r.Id,
			ProjectNameRaw:  strings.TrimSpace(r.ProjectNameRaw),
			TaskDescription: strings.TrimSpace(r.TaskDescription),
			SourceText:      r.SourceText,
		}

		for _, code := range r.Issues {
			if parsed, err := models.ParseIssueCode(code); err == nil {
				e.Issues = e.Issues.With(parsed)
			}
		}

		if category, err := models.ParseEntryCategory(strings.TrimSpace(r.Category)); err == nil {
			e.Category = category
		} else {
			e.Category = models.EntryCategoryOther
			e.Issues = e.Issues.With(models.IssueCategoryAmbiguous)
		}

		if intent, err := models.ParseEntryIntent(strings.TrimSpace(r.Intent)); err == nil {
			e.Intent = intent
		} else {
			e.Intent = models.EntryIntentDone
		}

		if _, err := utils.ParseCalendarDate(r.Date); err == nil {
			e.Date = strings.TrimSpace(r.Date)
		} else {
			e.Date = utils.FormatCalendarDate(now)
			e.Issues = e.Issues.With(models.IssueDateAmbiguous)
		}

		if r.DurationMinutes != nil && *r.DurationMinutes >= 1 && *r.DurationMinutes <= 1440 {
			minutes := *r.DurationMinutes
			e.DurationMinutes = &minutes
		}

		out = append(out, e)
	}
	return out
}
