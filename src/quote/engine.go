// Package quote turns a working set of debt lines into a restructuring plan.
package quote

import (
	"time"

	"github.com/username/debtfolio/src/models"
	"github.com/username/debtfolio/src/utils"
)

// Engine aggregates debt lines into plans. The clock and folio generator are
// injectable so aggregation is deterministic under test; both default to the
// real thing.
type Engine struct {
	Now      func() time.Time
	NewFolio func() string
}

func NewEngine() *Engine {
	return &Engine{
		Now:      time.Now,
		NewFolio: GenerateFolio,
	}
}

// AggregateOptions carries the per-quote inputs that are not debt lines.
type AggregateOptions struct {
	DebtorName string
	// InstallmentCount below 1 is treated as a single installment.
	InstallmentCount int
	// Folio, when set, re-uses the identifier of the plan being edited so a
	// commit updates instead of creating. Empty means a fresh folio is
	// generated.
	Folio string
}

// Aggregate filters the working set down to complete lines, sums them and
// builds a fully formed Plan. It never mutates its inputs; an all-incomplete
// or empty set yields ErrNoValidLines.
func (e *Engine) Aggregate(lines []models.DebtLine, refs *models.ReferenceLists, opts AggregateOptions) (*models.Plan, error) {
	complete := make([]models.DebtLine, 0, len(lines))
	for _, line := range lines {
		if !line.Complete(refs) {
			continue
		}
		// Rederive the discounted amount so the stored value can never drift
		// from the original amount and percentage.
		line.DiscountedAmount = utils.DiscountedAmount(line.OriginalAmount, line.DiscountPercent)
		complete = append(complete, line)
	}
	if len(complete) == 0 {
		return nil, models.ErrNoValidLines
	}

	var totalOriginal, totalDiscounted float64
	for _, line := range complete {
		totalOriginal += line.OriginalAmount
		totalDiscounted += line.DiscountedAmount
	}
	totalOriginal = utils.RoundMoney(totalOriginal)
	totalDiscounted = utils.RoundMoney(totalDiscounted)

	installments := opts.InstallmentCount
	if installments < 1 {
		installments = 1
	}

	folio := opts.Folio
	if folio == "" {
		folio = e.NewFolio()
	}

	return &models.Plan{
		Folio:             folio,
		Date:              utils.FormatPlanDate(e.Now()),
		DebtorName:        opts.DebtorName,
		LineCount:         len(complete),
		TotalOriginal:     totalOriginal,
		TotalDiscounted:   totalDiscounted,
		Savings:           utils.RoundMoney(totalOriginal - totalDiscounted),
		TotalToPay:        totalDiscounted,
		InstallmentCount:  installments,
		InstallmentAmount: utils.InstallmentAmount(totalDiscounted, installments),
		Lines:             complete,
	}, nil
}
