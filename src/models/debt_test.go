package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRefs() *ReferenceLists {
	return &ReferenceLists{
		Entities:     []string{"Banco Santander", "BBVA"},
		ProductTypes: []string{"Hipoteca", "Tarjeta de Crédito"},
	}
}

func TestRecomputeDerivesDiscountedAmount(t *testing.T) {
	line := DebtLine{OriginalAmount: 5000, DiscountPercent: 30, DiscountedAmount: 999}
	warnings := line.Recompute()
	assert.Empty(t, warnings)
	assert.Equal(t, 3500.00, line.DiscountedAmount)
}

func TestRecomputeClampsPercentWithWarning(t *testing.T) {
	line := DebtLine{OriginalAmount: 1000, DiscountPercent: 130}
	warnings := line.Recompute()
	require.Len(t, warnings, 1)
	assert.Equal(t, "discountPercent", warnings[0].Field)
	assert.Equal(t, 100.0, line.DiscountPercent)
	assert.Equal(t, 0.0, line.DiscountedAmount)

	line = DebtLine{OriginalAmount: 1000, DiscountPercent: -5}
	warnings = line.Recompute()
	require.Len(t, warnings, 1)
	assert.Equal(t, 0.0, line.DiscountPercent)
	assert.Equal(t, 1000.00, line.DiscountedAmount)
}

func TestComplete(t *testing.T) {
	refs := testRefs()
	valid := DebtLine{
		ContractNumber:  "C-001",
		ProductType:     "Hipoteca",
		Entity:          "BBVA",
		OriginalAmount:  5000,
		DiscountPercent: 30,
	}
	assert.True(t, valid.Complete(refs))

	tests := []struct {
		name   string
		mutate func(*DebtLine)
	}{
		{"empty contract number", func(d *DebtLine) { d.ContractNumber = "  " }},
		{"unknown entity", func(d *DebtLine) { d.Entity = "Banco Inventado" }},
		{"empty entity", func(d *DebtLine) { d.Entity = "" }},
		{"unknown product type", func(d *DebtLine) { d.ProductType = "Leasing" }},
		{"zero amount", func(d *DebtLine) { d.OriginalAmount = 0 }},
		{"negative amount", func(d *DebtLine) { d.OriginalAmount = -10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := valid
			tt.mutate(&line)
			assert.False(t, line.Complete(refs))
		})
	}

	t.Run("nil reference lists", func(t *testing.T) {
		assert.False(t, valid.Complete(nil))
	})
}

func TestPlanSummary(t *testing.T) {
	plan := Plan{
		Folio:             "FOLIO-1",
		Date:              "15/03/2025",
		DebtorName:        "Ana García",
		LineCount:         2,
		TotalOriginal:     8000,
		TotalDiscounted:   5000,
		Savings:           3000,
		TotalToPay:        5000,
		InstallmentCount:  10,
		InstallmentAmount: 500,
		Lines:             []DebtLine{{ContractNumber: "C-1"}, {ContractNumber: "C-2"}},
	}
	summary := plan.Summary()
	assert.Equal(t, plan.Folio, summary.Folio)
	assert.Equal(t, plan.TotalDiscounted, summary.TotalDiscounted)
	assert.Equal(t, plan.InstallmentCount, summary.InstallmentCount)
}
