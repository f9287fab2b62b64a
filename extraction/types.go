// Package extraction is the boundary to the external natural-language
// extraction service. The service turns raw free-form text into zero or more
// unvalidated candidate guesses; everything after that (matching, issue
// classification, reviewer loop) is the reconciliation engine's job, and no
// NLP model ever runs in-process.
package extraction

// RawCandidate is one first-pass structured guess as the upstream service
// returns it. Nothing here is trusted yet.
type RawCandidate struct {
	Id              string   `json:"id"`
	ProjectNameRaw  string   `json:"projectNameRaw"`
	TaskDescription string   `json:"taskDescription"`
	Date            string   `json:"date"`
	DurationMinutes *int     `json:"durationMinutes"`
	Category        string   `json:"category"`
	Intent          string   `json:"intent"`
	SourceText      string   `json:"sourceText"`
	Issues          []string `json:"issues"`
}

type ExtractRequest struct {
	Text string `json:"text"`
}

type ExtractResponse struct {
	Entries []RawCandidate `json:"entries"`
}
