package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEUR(t *testing.T) {
	tests := []struct {
		val  float64
		want string
	}{
		{0, "0,00 €"},
		{1234.56, "1.234,56 €"},
		{1000000, "1.000.000,00 €"},
		{999.9, "999,90 €"},
		{-1234.56, "-1.234,56 €"},
		{0.05, "0,05 €"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatEUR(tt.val))
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	// The round trip must be loss-free for any value rounded to 2 decimals.
	for _, val := range []float64{0, 0.01, 12.34, 999.99, 1234.56, 98765.43, 1000000.00, -500.25} {
		parsed, err := ParseEUR(FormatEUR(val))
		require.NoError(t, err)
		assert.Equal(t, val, parsed, "value %v did not survive the round trip", val)
	}
}

func TestParseEURRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "€", "abc", "12,34,56 €"} {
		_, err := ParseEUR(s)
		assert.Error(t, err, "expected error for %q", s)
	}
}
