package models_test

import (
	"testing"

	"github.com/gigtally/tally_backend/models"
)

func ruleByType(t *testing.T, results []models.RuleResult, alertType models.AlertType) models.RuleResult {
	t.Helper()
	for _, r := range results {
		if r.Type == alertType {
			return r
		}
	}
	t.Fatalf("no result for %s", alertType)
	return models.RuleResult{}
}

// Demo project totals: 2820 done minutes (47h of a 40h budget at 40%
// progress), 1140 revision minutes over 7 revision entries. All three rules
// fire.
func demoTotals() models.ProjectTimeTotals {
	return models.ProjectTimeTotals{
		TotalMinutes:    2820,
		RevisionMinutes: 1140,
		RevisionCount:   7,
	}
}

func TestScopeRulesDemoProjectAllFire(t *testing.T) {
	results := models.EvaluateScopeRules(demoFinancials(), demoTotals())
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for _, r := range results {
		if !r.Triggered {
			t.Errorf("rule %s did not trigger", r.Type)
		}
	}

	tb := ruleByType(t, results, models.AlertTypeTimeBudget)
	if tb.Metadata.TimeRatio == nil || !tb.Metadata.TimeRatio.Equal(dec("1.175")) {
		t.Errorf("time ratio = %v, want 1.175", tb.Metadata.TimeRatio)
	}
	rs := ruleByType(t, results, models.AlertTypeRevisionShare)
	if rs.Metadata.RevisionRatio == nil || !rs.Metadata.RevisionRatio.Equal(dec("0.4043")) {
		t.Errorf("revision ratio = %v, want 0.4043", rs.Metadata.RevisionRatio)
	}
	rc := ruleByType(t, results, models.AlertTypeRevisionCount)
	if rc.Metadata.RevisionCount == nil || *rc.Metadata.RevisionCount != 7 {
		t.Errorf("revision count = %v, want 7", rc.Metadata.RevisionCount)
	}
}

func TestScopeRulesHealthyProjectNoneFire(t *testing.T) {
	f := models.ProjectFinancials{
		ExpectedFee:     dec("3000"),
		ExpectedHours:   dec("60"),
		PlatformFeeRate: dec("0.10"),
		TaxRate:         dec("0.19"),
		ProgressPercent: 70,
	}
	totals := models.ProjectTimeTotals{TotalMinutes: 420, RevisionMinutes: 60, RevisionCount: 1}

	for _, r := range models.EvaluateScopeRules(f, totals) {
		if r.Triggered {
			t.Errorf("rule %s triggered on a healthy project", r.Type)
		}
	}
}

// All thresholds are inclusive: exactly-at-threshold must trigger, and one
// minute less must not.
func TestScopeRuleBoundaries(t *testing.T) {
	f := demoFinancials() // 40h budget, 40% progress

	// Time budget: 0.8 * 40h = 32h = 1920 minutes.
	at := models.EvaluateScopeRules(f, models.ProjectTimeTotals{TotalMinutes: 1920})
	if !ruleByType(t, at, models.AlertTypeTimeBudget).Triggered {
		t.Error("time budget rule must fire at exactly 80% of budget")
	}
	under := models.EvaluateScopeRules(f, models.ProjectTimeTotals{TotalMinutes: 1919})
	if ruleByType(t, under, models.AlertTypeTimeBudget).Triggered {
		t.Error("time budget rule fired below 80% of budget")
	}

	// Progress guard: the same hours at 50% progress do not fire.
	halfway := f
	halfway.ProgressPercent = 50
	guarded := models.EvaluateScopeRules(halfway, models.ProjectTimeTotals{TotalMinutes: 1920})
	if ruleByType(t, guarded, models.AlertTypeTimeBudget).Triggered {
		t.Error("time budget rule must not fire at 50% progress or above")
	}

	// Revision share: 0.4 of 1000 minutes is exactly 400.
	share := models.EvaluateScopeRules(f, models.ProjectTimeTotals{TotalMinutes: 1000, RevisionMinutes: 400})
	if !ruleByType(t, share, models.AlertTypeRevisionShare).Triggered {
		t.Error("revision share rule must fire at exactly 40%")
	}
	shareUnder := models.EvaluateScopeRules(f, models.ProjectTimeTotals{TotalMinutes: 1000, RevisionMinutes: 399})
	if ruleByType(t, shareUnder, models.AlertTypeRevisionShare).Triggered {
		t.Error("revision share rule fired below 40%")
	}

	// Revision count: inclusive at 5.
	count := models.EvaluateScopeRules(f, models.ProjectTimeTotals{TotalMinutes: 600, RevisionCount: 5})
	if !ruleByType(t, count, models.AlertTypeRevisionCount).Triggered {
		t.Error("revision count rule must fire at exactly 5 entries")
	}
	countUnder := models.EvaluateScopeRules(f, models.ProjectTimeTotals{TotalMinutes: 600, RevisionCount: 4})
	if ruleByType(t, countUnder, models.AlertTypeRevisionCount).Triggered {
		t.Error("revision count rule fired below 5 entries")
	}
}

// Empty projects must never divide by zero or fire ratio rules.
func TestScopeRulesEmptyProject(t *testing.T) {
	f := demoFinancials()
	f.ExpectedHours = dec("0")

	for _, r := range models.EvaluateScopeRules(f, models.ProjectTimeTotals{}) {
		if r.Triggered {
			t.Errorf("rule %s triggered with no data", r.Type)
		}
	}
}
