package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectPrecision(t *testing.T) {
	tests := []struct {
		close     float64
		precision int
		minMove   float64
	}{
		{0, 6, 0.000001},
		{0.5, 6, 0.000001},
		{0.999999, 6, 0.000001},
		{1, 4, 0.0001},
		{42.17, 4, 0.0001},
		{999.99, 4, 0.0001},
		{1000, 2, 0.01},
		{65000.5, 2, 0.01},
	}

	for _, tt := range tests {
		got := SelectPrecision(tt.close)
		assert.Equal(t, tt.precision, got.Precision, "close=%v", tt.close)
		assert.Equal(t, tt.minMove, got.MinMove, "close=%v", tt.close)
	}
}
