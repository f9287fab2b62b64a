package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gigtally/tally_backend/utils"
)

// CandidateEntry is an unconfirmed, reviewer-editable guess at a time record.
// It lives only inside one review session: created from extraction output,
// patched field-by-field by the reviewer, destroyed on commit or discard.
// It is deliberately NOT a persisted model; NeedsUserAction and
// ClarificationQuestion are derived projections recomputed on every
// transition, so they can never drift from Issues.
type CandidateEntry struct {
	Id                    string        `json:"id"`
	ProjectNameRaw        string        `json:"projectNameRaw"`
	MatchedProjectId      *int          `json:"matchedProjectId"`
	MatchSource           MatchSource   `json:"matchSource"`
	TaskDescription       string        `json:"taskDescription"`
	Date                  string        `json:"date"`
	DurationMinutes       *int          `json:"durationMinutes"`
	Category              EntryCategory `json:"category"`
	Intent                EntryIntent   `json:"intent"`
	SourceText            string        `json:"sourceText"`
	Issues                IssueList     `json:"issues"`
	NeedsUserAction       bool          `json:"needsUserAction"`
	ClarificationQuestion *string       `json:"clarificationQuestion"`
}

// CandidateField names the fields the reviewer may patch through SetCandidateField.
type CandidateField string

const (
	CandidateFieldDate            CandidateField = "date"
	CandidateFieldDuration        CandidateField = "durationMinutes"
	CandidateFieldCategory        CandidateField = "category"
	CandidateFieldTaskDescription CandidateField = "taskDescription"
	CandidateFieldIntent          CandidateField = "intent"
)

// recompute re-derives everything that follows from Issues.
func (e *CandidateEntry) recompute() {
	e.NeedsUserAction = e.Issues.HasBlocking()

	e.ClarificationQuestion = nil
	if e.Issues.Contains(IssueNoProjectMatch) {
		q := fmt.Sprintf("Which project is %q for?", strings.TrimSpace(e.ProjectNameRaw))
		if strings.TrimSpace(e.ProjectNameRaw) == "" {
			q = "Which project is this entry for?"
		}
		e.ClarificationQuestion = &q
		return
	}
	if e.Issues.Contains(IssueNoDuration) {
		q := "How long did this take?"
		if strings.TrimSpace(e.TaskDescription) != "" {
			q = fmt.Sprintf("How long did %q take?", strings.TrimSpace(e.TaskDescription))
		}
		e.ClarificationQuestion = &q
	}
}

// AttachProject runs the directory match for one candidate. Called once at
// extraction time and re-run on manual override.
func (e *CandidateEntry) AttachProject(directory []*ProjectRef) {
	id, source := MatchProjectReference(e.ProjectNameRaw, directory)
	if source == MatchSourceNone {
		e.MatchedProjectId = nil
		e.MatchSource = MatchSourceNone
		e.Issues = e.Issues.With(IssueNoProjectMatch)
	} else {
		e.MatchedProjectId = &id
		e.MatchSource = source
		e.Issues = e.Issues.Without(IssueNoProjectMatch)
	}
	e.recompute()
}

// AttachProjects matches every candidate in the batch against the directory
// and normalizes duration/intent issues coming from the extraction guess.
func AttachProjects(entries []CandidateEntry, directory []*ProjectRef) []CandidateEntry {
	out := make([]CandidateEntry, len(entries))
	for i, e := range entries {
		if e.DurationMinutes == nil {
			e.Issues = e.Issues.With(IssueNoDuration)
		}
		if e.Intent == EntryIntentPlanned {
			e.Issues = e.Issues.With(IssueFutureIntent)
		}
		e.AttachProject(directory)
		out[i] = e
	}
	return out
}

func findCandidate(entries []CandidateEntry, entryId string) (int, error) {
	for i := range entries {
		if entries[i].Id == entryId {
			return i, nil
		}
	}
	return 0, utils.ErrorRecordNotFound
}

// SetCandidateProject is the reviewer's manual override for a project match.
// It clears NO_PROJECT_MATCH and records the override as a name match.
func SetCandidateProject(entries []CandidateEntry, entryId string, projectId int) ([]CandidateEntry, error) {
	i, err := findCandidate(entries, entryId)
	if err != nil {
		return nil, err
	}
	out := make([]CandidateEntry, len(entries))
	copy(out, entries)

	e := out[i]
	e.MatchedProjectId = &projectId
	e.MatchSource = MatchSourceName
	e.Issues = e.Issues.Without(IssueNoProjectMatch)
	e.recompute()
	out[i] = e
	return out, nil
}

// SetCandidateField patches a single reviewer-editable field, re-validating
// the value and clearing the issues the patch resolves.
func SetCandidateField(entries []CandidateEntry, entryId string, field CandidateField, value string) ([]CandidateEntry, error) {
	i, err := findCandidate(entries, entryId)
	if err != nil {
		return nil, err
	}
	out := make([]CandidateEntry, len(entries))
	copy(out, entries)
	e := out[i]

	switch field {
	case CandidateFieldDate:
		if _, err := utils.ParseCalendarDate(value); err != nil {
			return nil, utils.NewValidationError(string(field), "must be an ISO calendar date")
		}
		e.Date = strings.TrimSpace(value)
		e.Issues = e.Issues.Without(IssueDateAmbiguous)
	case CandidateFieldDuration:
		minutes, convErr := strconv.Atoi(strings.TrimSpace(value))
		if convErr != nil || minutes < 1 || minutes > 1440 {
			return nil, utils.NewValidationError(string(field), "must be between 1 and 1440 minutes")
		}
		e.DurationMinutes = &minutes
		e.Issues = e.Issues.Without(IssueNoDuration).Without(IssueDurationAmbiguous)
	case CandidateFieldCategory:
		category, parseErr := ParseEntryCategory(strings.TrimSpace(value))
		if parseErr != nil {
			return nil, utils.NewValidationError(string(field), "invalid category")
		}
		e.Category = category
		e.Issues = e.Issues.Without(IssueCategoryAmbiguous)
	case CandidateFieldTaskDescription:
		e.TaskDescription = strings.TrimSpace(value)
	case CandidateFieldIntent:
		intent, parseErr := ParseEntryIntent(strings.TrimSpace(value))
		if parseErr != nil {
			return nil, utils.NewValidationError(string(field), "invalid intent")
		}
		e.Intent = intent
		if intent == EntryIntentPlanned {
			e.Issues = e.Issues.With(IssueFutureIntent)
		} else {
			e.Issues = e.Issues.Without(IssueFutureIntent)
		}
	default:
		return nil, utils.NewValidationError("field", "unknown field")
	}

	e.recompute()
	out[i] = e
	return out, nil
}

// RemoveCandidate discards one candidate from the session entirely.
func RemoveCandidate(entries []CandidateEntry, entryId string) ([]CandidateEntry, error) {
	i, err := findCandidate(entries, entryId)
	if err != nil {
		return nil, err
	}
	out := make([]CandidateEntry, 0, len(entries)-1)
	out = append(out, entries[:i]...)
	out = append(out, entries[i+1:]...)
	return out, nil
}

// CanCommitAll is true iff the list is non-empty and no entry carries a
// blocking issue: every entry has a project and a duration.
func CanCommitAll(entries []CandidateEntry) bool {
	if len(entries) == 0 {
		return false
	}
	for i := range entries {
		if entries[i].MatchedProjectId == nil || entries[i].DurationMinutes == nil {
			return false
		}
		if entries[i].Issues.HasBlocking() {
			return false
		}
	}
	return true
}

// ToTimeRecordInputs converts a save-ready session to commit-gateway inputs.
func ToTimeRecordInputs(entries []CandidateEntry) ([]*TimeRecordInput, error) {
	if !CanCommitAll(entries) {
		return nil, utils.NewValidationError("entries", "unresolved blocking issues remain")
	}
	inputs := make([]*TimeRecordInput, 0, len(entries))
	for i := range entries {
		e := entries[i]
		inputs = append(inputs, &TimeRecordInput{
			ProjectId:       *e.MatchedProjectId,
			Date:            e.Date,
			Minutes:         *e.DurationMinutes,
			Category:        e.Category,
			Intent:          e.Intent,
			TaskDescription: e.TaskDescription,
			SourceText:      e.SourceText,
			Issues:          e.Issues,
		})
	}
	return inputs, nil
}
