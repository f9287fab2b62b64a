package models

import "github.com/shopspring/decimal"

// The three scope-creep thresholds. Observed product behavior: comparisons
// use >=, and a rule turning false later never clears an existing alert.
var (
	timeBudgetThreshold    = decimal.RequireFromString("0.8")
	revisionShareThreshold = decimal.RequireFromString("0.4")
)

const (
	timeBudgetProgressCeiling = 50
	revisionCountThreshold    = 5
)

// AlertMetadata snapshots the values that triggered a rule, so a dismissed
// alert remains explainable after the underlying numbers move on.
type AlertMetadata struct {
	TimeRatio       *decimal.Decimal `json:"timeRatio,omitempty"`
	RevisionRatio   *decimal.Decimal `json:"revisionRatio,omitempty"`
	Threshold       decimal.Decimal  `json:"threshold"`
	ProgressPercent *int             `json:"progressPercent,omitempty"`
	TotalHours      *decimal.Decimal `json:"totalHours,omitempty"`
	ExpectedHours   *decimal.Decimal `json:"expectedHours,omitempty"`
	RevisionMinutes *int             `json:"revisionMinutes,omitempty"`
	TotalMinutes    *int             `json:"totalMinutes,omitempty"`
	RevisionCount   *int             `json:"revisionCount,omitempty"`
}

type RuleResult struct {
	Type      AlertType     `json:"type"`
	Triggered bool          `json:"triggered"`
	Metadata  AlertMetadata `json:"metadata"`
}

// EvaluateScopeRules runs the three independent threshold rules against a
// project's financial state and aggregated done-entries. Threshold
// comparisons are cross-multiplied so the >= boundary is exact; the divided
// ratios appear only in the metadata snapshot.
func EvaluateScopeRules(f ProjectFinancials, totals ProjectTimeTotals) []RuleResult {
	return []RuleResult{
		evaluateTimeBudget(f, totals),
		evaluateRevisionShare(totals),
		evaluateRevisionCount(totals),
	}
}

// totalHours/expectedHours >= 0.8 while the project is under 50% done.
func evaluateTimeBudget(f ProjectFinancials, totals ProjectTimeTotals) RuleResult {
	result := RuleResult{Type: AlertTypeTimeBudget, Metadata: AlertMetadata{Threshold: timeBudgetThreshold}}
	if !f.ExpectedHours.IsPositive() {
		return result
	}

	totalMinutes := decimal.NewFromInt(int64(totals.TotalMinutes))
	expectedMinutes := f.ExpectedHours.Mul(sixtyMinutes)
	triggered := totalMinutes.GreaterThanOrEqual(expectedMinutes.Mul(timeBudgetThreshold)) &&
		f.ProgressPercent < timeBudgetProgressCeiling

	if triggered {
		totalHours := totalMinutes.Div(sixtyMinutes)
		timeRatio := totalHours.Div(f.ExpectedHours).Round(4)
		progress := f.ProgressPercent
		expectedHours := f.ExpectedHours
		result.Triggered = true
		result.Metadata.TimeRatio = &timeRatio
		result.Metadata.ProgressPercent = &progress
		result.Metadata.TotalHours = &totalHours
		result.Metadata.ExpectedHours = &expectedHours
	}
	return result
}

// revisionMinutes/totalMinutes >= 0.4, guarded against empty projects.
func evaluateRevisionShare(totals ProjectTimeTotals) RuleResult {
	result := RuleResult{Type: AlertTypeRevisionShare, Metadata: AlertMetadata{Threshold: revisionShareThreshold}}
	if totals.TotalMinutes <= 0 {
		return result
	}

	revisionMinutes := decimal.NewFromInt(int64(totals.RevisionMinutes))
	totalMinutes := decimal.NewFromInt(int64(totals.TotalMinutes))
	if revisionMinutes.GreaterThanOrEqual(totalMinutes.Mul(revisionShareThreshold)) {
		revisionRatio := revisionMinutes.Div(totalMinutes).Round(4)
		rev := totals.RevisionMinutes
		total := totals.TotalMinutes
		result.Triggered = true
		result.Metadata.RevisionRatio = &revisionRatio
		result.Metadata.RevisionMinutes = &rev
		result.Metadata.TotalMinutes = &total
	}
	return result
}

// count(category=revision) >= 5.
func evaluateRevisionCount(totals ProjectTimeTotals) RuleResult {
	result := RuleResult{Type: AlertTypeRevisionCount, Metadata: AlertMetadata{Threshold: decimal.NewFromInt(revisionCountThreshold)}}
	if totals.RevisionCount >= revisionCountThreshold {
		count := totals.RevisionCount
		result.Triggered = true
		result.Metadata.RevisionCount = &count
	}
	return result
}
