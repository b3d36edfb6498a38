package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeForFormulaInjection(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ana García", "Ana García"},
		{"=HYPERLINK(\"http://evil\")", "'=HYPERLINK(\"http://evil\")"},
		{"+1234", "'+1234"},
		{"-500", "'-500"},
		{"@import", "'@import"},
		{"  =1+1", "'  =1+1"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeForFormulaInjection(tt.in), tt.in)
	}
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "Ana García", StripUnprintable("Ana\x00 Gar\x07cía"))
	assert.Equal(t, "a\tb\nc", StripUnprintable("a\tb\nc"))
}

func TestCleanCell(t *testing.T) {
	assert.Equal(t, "'=SUM(A1)", CleanCell("\x00=SUM(A1)"))
}
