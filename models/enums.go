package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EntryCategory is the fixed category set shared by the record schema and the
// scope-creep rules. It is stored as-is and never extended per user.
type EntryCategory string

const (
	EntryCategoryPlanning    EntryCategory = "planning"
	EntryCategoryDesign      EntryCategory = "design"
	EntryCategoryDevelopment EntryCategory = "development"
	EntryCategoryMeeting     EntryCategory = "meeting"
	EntryCategoryRevision    EntryCategory = "revision"
	EntryCategoryAdmin       EntryCategory = "admin"
	EntryCategoryEmail       EntryCategory = "email"
	EntryCategoryResearch    EntryCategory = "research"
	EntryCategoryOther       EntryCategory = "other"
)

var allEntryCategories = []EntryCategory{
	EntryCategoryPlanning, EntryCategoryDesign, EntryCategoryDevelopment,
	EntryCategoryMeeting, EntryCategoryRevision, EntryCategoryAdmin,
	EntryCategoryEmail, EntryCategoryResearch, EntryCategoryOther,
}

func ParseEntryCategory(s string) (EntryCategory, error) {
	for _, c := range allEntryCategories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", errors.New("invalid entry category")
}

func (c EntryCategory) IsValid() bool {
	_, err := ParseEntryCategory(string(c))
	return err == nil
}

type EntryIntent string

const (
	// EntryIntentDone is completed work; only done entries feed the
	// aggregation the rule engine runs on.
	EntryIntentDone EntryIntent = "done"
	// EntryIntentPlanned is future work logged ahead of time.
	EntryIntentPlanned EntryIntent = "planned"
)

func ParseEntryIntent(s string) (EntryIntent, error) {
	switch EntryIntent(s) {
	case EntryIntentDone:
		return EntryIntentDone, nil
	case EntryIntentPlanned:
		return EntryIntentPlanned, nil
	}
	return "", errors.New("invalid entry intent")
}

// MatchSource records how a candidate was attached to a project.
type MatchSource string

const (
	MatchSourceNone  MatchSource = "none"
	MatchSourceAlias MatchSource = "alias"
	MatchSourceName  MatchSource = "name"
)

// IssueCode classifies a reconciliation problem on a candidate entry.
// Blocking issues prevent commit; warnings are surfaced for review only.
type IssueCode string

const (
	IssueNoProjectMatch    IssueCode = "NO_PROJECT_MATCH"
	IssueNoDuration        IssueCode = "NO_DURATION"
	IssueDateAmbiguous     IssueCode = "DATE_AMBIGUOUS"
	IssueDurationAmbiguous IssueCode = "DURATION_AMBIGUOUS"
	IssueCategoryAmbiguous IssueCode = "CATEGORY_AMBIGUOUS"
	IssueFutureIntent      IssueCode = "FUTURE_INTENT"
)

func (i IssueCode) IsBlocking() bool {
	return i == IssueNoProjectMatch || i == IssueNoDuration
}

// ParseIssueCode recognizes the warning codes an upstream extraction guess
// may carry. Blocking codes are derived locally and never accepted from
// outside, so they are rejected here.
func ParseIssueCode(s string) (IssueCode, error) {
	switch IssueCode(strings.ToUpper(strings.TrimSpace(s))) {
	case IssueDateAmbiguous:
		return IssueDateAmbiguous, nil
	case IssueDurationAmbiguous:
		return IssueDurationAmbiguous, nil
	case IssueCategoryAmbiguous:
		return IssueCategoryAmbiguous, nil
	case IssueFutureIntent:
		return IssueFutureIntent, nil
	default:
		return "", fmt.Errorf("unknown issue code: %s", s)
	}
}

// IssueList is stored on committed records as a JSON column for audit.
type IssueList []IssueCode

func (l IssueList) Contains(code IssueCode) bool {
	for _, i := range l {
		if i == code {
			return true
		}
	}
	return false
}

func (l IssueList) HasBlocking() bool {
	for _, i := range l {
		if i.IsBlocking() {
			return true
		}
	}
	return false
}

// Without returns a copy with every occurrence of code removed.
func (l IssueList) Without(code IssueCode) IssueList {
	out := make(IssueList, 0, len(l))
	for _, i := range l {
		if i != code {
			out = append(out, i)
		}
	}
	return out
}

func (l IssueList) With(code IssueCode) IssueList {
	if l.Contains(code) {
		return l
	}
	out := make(IssueList, 0, len(l)+1)
	out = append(out, l...)
	return append(out, code)
}

func (l IssueList) Value() (driver.Value, error) {
	if l == nil {
		l = IssueList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *IssueList) Scan(value interface{}) error {
	if value == nil {
		*l = IssueList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("cannot scan %T into IssueList", value)
}

// AlertType identifies one of the three scope-creep rules. The wire values
// are the historical rule ids; the constants carry the meaning.
type AlertType string

const (
	// AlertTypeTimeBudget: logged hours crossed 80% of the agreed hours
	// while the project is still under 50% done.
	AlertTypeTimeBudget AlertType = "rule1"
	// AlertTypeRevisionShare: revision minutes are 40%+ of all logged minutes.
	AlertTypeRevisionShare AlertType = "rule2"
	// AlertTypeRevisionCount: five or more revision-category entries.
	AlertTypeRevisionCount AlertType = "rule3"
)

func ParseAlertType(s string) (AlertType, error) {
	switch AlertType(s) {
	case AlertTypeTimeBudget, AlertTypeRevisionShare, AlertTypeRevisionCount:
		return AlertType(s), nil
	}
	return "", errors.New("invalid alert type")
}
