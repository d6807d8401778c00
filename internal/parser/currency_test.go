package parser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  int64
	}{
		{"nil", nil, 0},
		{"rupiah text", "Rp. 77.107.000", 77107000},
		{"empty string", "", 0},
		{"no digits", "abc", 0},
		{"integer", 5000, 5000},
		{"int64", int64(10000000), 10000000},
		{"float without fraction", 2500000.0, 2500000},
		{"comma separators", "Rp 1,250,000", 1250000},
		{"trailing decimals are digits too", "Rp. 1.000,00", 100000},
		{"negative sign is noise", "-5000", 5000},
		{"whitespace only", "   ", 0},
		{"overflow saturates", "99999999999999999999999", math.MaxInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCurrency(tt.input))
		})
	}
}

func TestNormalizeCurrency_NilStringPointer(t *testing.T) {
	var s *string
	assert.Equal(t, int64(0), NormalizeCurrency(s))

	v := "Rp. 5.000"
	assert.Equal(t, int64(5000), NormalizeCurrency(&v))
}
