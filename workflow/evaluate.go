// Package workflow runs the post-commit side effects of the time ledger,
// currently the scope-creep evaluation that may raise alerts.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/gigtally/tally_backend/config"
	"github.com/gigtally/tally_backend/models"
)

// EvaluationResult reports what one per-project evaluation pass did.
type EvaluationResult struct {
	ProjectId      int                  `json:"projectId"`
	CreatedAlerts  []*models.ScopeAlert `json:"createdAlerts"`
	AlreadyActive  []models.AlertType   `json:"alreadyActive"`
	TriggeredRules int                  `json:"triggeredRules"`
}

// EvaluateProjectAlerts re-runs all scope rules for one project and opens an
// alert for every rule that newly crossed its threshold. A rule that stays
// continuously true raises at most one alert per occurrence: once dismissed,
// it stays silent until the rule drops back under threshold and crosses
// again. The Redis lock only narrows the race window between concurrent
// commits; the unique index on active alerts is what actually guarantees at
// most one.
func EvaluateProjectAlerts(ctx context.Context, projectId int) (*EvaluationResult, error) {
	logger := config.GetLogger()

	lock := obtainProjectLock(ctx, projectId)
	if lock != nil {
		defer lock.Release(context.WithoutCancel(ctx))
	}

	project, err := models.GetProject(ctx, projectId)
	if err != nil {
		return nil, err
	}

	financials, err := models.LoadProjectFinancials(ctx, project)
	if err != nil {
		return nil, err
	}
	totals, err := models.GetProjectTimeTotals(ctx, projectId)
	if err != nil {
		return nil, err
	}

	result := &EvaluationResult{ProjectId: projectId}
	for _, rule := range models.EvaluateScopeRules(financials, *totals) {
		wasTrue, err := models.GetRuleState(ctx, projectId, rule.Type)
		if err != nil {
			return nil, err
		}

		if rule.Triggered {
			result.TriggeredRules++
			if wasTrue {
				// Same occurrence as the last evaluation. If its alert was
				// dismissed, dismissal is terminal; if it is still active,
				// there is nothing to add either way.
				if active, err := models.GetActiveAlert(ctx, projectId, rule.Type); err != nil {
					return nil, err
				} else if active != nil {
					result.AlreadyActive = append(result.AlreadyActive, rule.Type)
				}
			} else {
				outcome, alert, err := models.CreateAlertIfAbsent(ctx, projectId, rule.Type, rule.Metadata)
				if err != nil {
					config.LogError(logger, "evaluate.go", "EvaluateProjectAlerts", "failed to create alert", projectId, err)
					return nil, err
				}
				switch outcome {
				case models.AlertCreated:
					result.CreatedAlerts = append(result.CreatedAlerts, alert)
					logger.WithField("projectId", projectId).WithField("alertType", rule.Type).Info("scope alert created")
				case models.AlertAlreadyActive:
					result.AlreadyActive = append(result.AlreadyActive, rule.Type)
				}
			}
		}

		// State is written last so a failed create is retried on the next
		// evaluation instead of being swallowed as a stale occurrence.
		if err := models.SetRuleState(ctx, projectId, rule.Type, rule.Triggered); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// EvaluateProjects runs the evaluation for every project touched by a commit.
// A failure on one project is logged and does not stop the others; commits
// must never be rolled back because an alert could not be written.
func EvaluateProjects(ctx context.Context, projectIds []int) []*EvaluationResult {
	logger := config.GetLogger()
	results := make([]*EvaluationResult, 0, len(projectIds))
	for _, id := range projectIds {
		result, err := EvaluateProjectAlerts(ctx, id)
		if err != nil {
			config.LogError(logger, "evaluate.go", "EvaluateProjects", "alert evaluation failed", id, err)
			continue
		}
		results = append(results, result)
	}
	return results
}

// obtainProjectLock serializes evaluations for one project. Best effort:
// without Redis, or when another evaluation holds the lock, we proceed and
// let the database constraint resolve the race.
func obtainProjectLock(ctx context.Context, projectId int) *redislock.Lock {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil
	}
	lockKey := fmt.Sprintf("alertEvaluation:%d", projectId)
	lock, err := locker.Obtain(ctx, lockKey, 10*time.Second, nil)
	if err != nil {
		return nil
	}
	return lock
}
