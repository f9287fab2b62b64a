package models

import (
	"context"

	"github.com/shopspring/decimal"
)

var (
	sixtyMinutes = decimal.NewFromInt(60)
)

// ProjectFinancials is the calculator-boundary view of a project: rates are
// fractions (never percentages) and fixedCosts is the summed total.
type ProjectFinancials struct {
	ExpectedFee     decimal.Decimal `json:"expected_fee"`
	ExpectedHours   decimal.Decimal `json:"expected_hours"`
	PlatformFeeRate decimal.Decimal `json:"platform_fee_rate"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	FixedCosts      decimal.Decimal `json:"fixed_costs"`
	ProgressPercent int             `json:"progress_percent"`
	Currency        string          `json:"currency"`
}

// CostBreakdown always sums exactly to ExpectedFee: net is computed as the
// remainder, never independently, so repeated recomputation cannot drift.
type CostBreakdown struct {
	Net               decimal.Decimal `json:"net"`
	PlatformFeeAmount decimal.Decimal `json:"platformFeeAmount"`
	TaxAmount         decimal.Decimal `json:"taxAmount"`
	FixedCosts        decimal.Decimal `json:"fixedCosts"`
}

// Metrics is the calculator output. NominalHourly/RealHourly are nil, not
// zero, when their denominator is zero; callers must treat nil as "not
// computable", distinct from a genuinely zero rate.
type Metrics struct {
	NominalHourly *decimal.Decimal `json:"nominalHourly"`
	RealHourly    *decimal.Decimal `json:"realHourly"`
	TotalHours    decimal.Decimal  `json:"totalHours"`
	Net           decimal.Decimal  `json:"net"`
	CostBreakdown CostBreakdown    `json:"costBreakdown"`
}

// ComputeMetrics is a pure function from financial parameters plus aggregated
// done-minutes to the nominal/real hourly rates and the cost breakdown.
// All arithmetic is exact decimal; the two rates are rounded to cents because
// division is the only step that cannot stay exact.
func ComputeMetrics(f ProjectFinancials, aggregatedMinutes int) Metrics {
	platformFeeAmount := f.ExpectedFee.Mul(f.PlatformFeeRate)
	taxAmount := f.ExpectedFee.Mul(f.TaxRate)
	directCost := f.FixedCosts.Add(platformFeeAmount).Add(taxAmount)
	net := f.ExpectedFee.Sub(directCost)

	totalHours := decimal.NewFromInt(int64(aggregatedMinutes)).Div(sixtyMinutes)

	var nominalHourly *decimal.Decimal
	if f.ExpectedHours.IsPositive() {
		v := f.ExpectedFee.Div(f.ExpectedHours).Round(2)
		nominalHourly = &v
	}
	var realHourly *decimal.Decimal
	if totalHours.IsPositive() {
		v := net.Div(totalHours).Round(2)
		realHourly = &v
	}

	return Metrics{
		NominalHourly: nominalHourly,
		RealHourly:    realHourly,
		TotalHours:    totalHours,
		Net:           net,
		CostBreakdown: CostBreakdown{
			Net:               net,
			PlatformFeeAmount: platformFeeAmount,
			TaxAmount:         taxAmount,
			FixedCosts:        f.FixedCosts,
		},
	}
}

// LoadProjectFinancials assembles the calculator input for one project,
// summing the user's fixed costs.
func LoadProjectFinancials(ctx context.Context, project *Project) (ProjectFinancials, error) {
	fixedCosts, err := SumFixedCosts(ctx, project.UserId)
	if err != nil {
		return ProjectFinancials{}, err
	}
	return ProjectFinancials{
		ExpectedFee:     project.ExpectedFee,
		ExpectedHours:   project.ExpectedHours,
		PlatformFeeRate: project.PlatformFeeRate,
		TaxRate:         project.TaxRate,
		FixedCosts:      fixedCosts,
		ProgressPercent: project.ProgressPercent,
		Currency:        project.Currency,
	}, nil
}

// MetricsResponse is the metrics-read contract: calculator output plus the
// single oldest active alert, if any, surfaced for immediate attention.
type MetricsResponse struct {
	ProjectId       int              `json:"projectId"`
	NominalHourly   *decimal.Decimal `json:"nominalHourly"`
	RealHourly      *decimal.Decimal `json:"realHourly"`
	TotalHours      decimal.Decimal  `json:"totalHours"`
	Net             decimal.Decimal  `json:"net"`
	CostBreakdown   CostBreakdown    `json:"costBreakdown"`
	ProgressPercent int              `json:"progressPercent"`
	Currency        string           `json:"currency"`
	PendingAlert    *ScopeAlert      `json:"pendingAlert,omitempty"`
}

func GetProjectMetrics(ctx context.Context, projectId int) (*MetricsResponse, error) {
	project, err := GetProject(ctx, projectId)
	if err != nil {
		return nil, err
	}
	financials, err := LoadProjectFinancials(ctx, project)
	if err != nil {
		return nil, err
	}
	totals, err := GetProjectTimeTotals(ctx, projectId)
	if err != nil {
		return nil, err
	}
	metrics := ComputeMetrics(financials, totals.TotalMinutes)

	pendingAlert, err := GetPendingAlert(ctx, projectId)
	if err != nil {
		return nil, err
	}

	return &MetricsResponse{
		ProjectId:       projectId,
		NominalHourly:   metrics.NominalHourly,
		RealHourly:      metrics.RealHourly,
		TotalHours:      metrics.TotalHours,
		Net:             metrics.Net,
		CostBreakdown:   metrics.CostBreakdown,
		ProgressPercent: financials.ProgressPercent,
		Currency:        financials.Currency,
		PendingAlert:    pendingAlert,
	}, nil
}
