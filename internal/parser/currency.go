package parser

import (
	"fmt"
	"math"
	"strconv"
)

// NormalizeCurrency converts a currency-formatted value such as "Rp. 77.107.000" into
// an integer amount. Every non-digit character is dropped; nil or a value without
// digits yields 0. Amounts beyond int64 saturate at math.MaxInt64.
func NormalizeCurrency(v interface{}) int64 {
	if v == nil {
		return 0
	}
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case *string:
		if x == nil {
			return 0
		}
		s = *x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		s = strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		s = fmt.Sprint(x)
	}
	return NormalizeCurrencyText(s)
}

// NormalizeCurrencyText is NormalizeCurrency for text input.
func NormalizeCurrencyText(s string) int64 {
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			continue
		}
		d := int64(c - '0')
		if n > (math.MaxInt64-d)/10 {
			return math.MaxInt64
		}
		n = n*10 + d
	}
	return n
}
