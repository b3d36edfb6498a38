package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscountedAmount(t *testing.T) {
	tests := []struct {
		name     string
		original float64
		percent  float64
		want     float64
	}{
		{"thirty percent off", 5000, 30, 3500.00},
		{"fifty percent off", 3000, 50, 1500.00},
		{"no discount", 1234.56, 0, 1234.56},
		{"full discount", 1000, 100, 0},
		{"fractional percent rounds to 2 decimals", 100, 33.333, 66.67},
		{"percent above range clamps to 100", 1000, 150, 0},
		{"negative percent clamps to 0", 1000, -10, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiscountedAmount(tt.original, tt.percent))
		})
	}
}

func TestDiscountedAmountNeverExceedsOriginal(t *testing.T) {
	for _, original := range []float64{0, 0.01, 99.99, 5000, 123456.78} {
		for _, percent := range []float64{0, 0.5, 33.333, 50, 99.99, 100} {
			got := DiscountedAmount(original, percent)
			assert.LessOrEqual(t, got, original, "original=%v percent=%v", original, percent)
			assert.GreaterOrEqual(t, got, 0.0, "original=%v percent=%v", original, percent)
		}
	}
}

func TestClampPercent(t *testing.T) {
	v, changed := ClampPercent(50)
	assert.Equal(t, 50.0, v)
	assert.False(t, changed)

	v, changed = ClampPercent(-1)
	assert.Equal(t, 0.0, v)
	assert.True(t, changed)

	v, changed = ClampPercent(100.01)
	assert.Equal(t, 100.0, v)
	assert.True(t, changed)
}

func TestInstallmentAmount(t *testing.T) {
	assert.Equal(t, 500.00, InstallmentAmount(5000, 10))
	assert.Equal(t, 416.67, InstallmentAmount(5000.00, 12))

	// Counts below 1 are treated as a single installment.
	assert.Equal(t, 5000.00, InstallmentAmount(5000, 0))
	assert.Equal(t, 5000.00, InstallmentAmount(5000, -3))
}

func TestRoundMoney(t *testing.T) {
	// 0.125 is exactly representable in binary, so this is a true half case.
	assert.Equal(t, 0.13, RoundMoney(0.125))
	assert.Equal(t, -0.13, RoundMoney(-0.125))
	assert.Equal(t, 2.35, RoundMoney(2.346))
	assert.Equal(t, 2.34, RoundMoney(2.344))
}
