package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound2_HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1"},
		{"-1.005", "-1.01"},
		{"2.675", "2.68"},
		{"27000", "27000"},
		{"0.125", "0.13"},
		{"-0.125", "-0.13"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Round2(decimal.RequireFromString(tt.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestPercentOf(t *testing.T) {
	got := PercentOf(decimal.NewFromInt(30000), decimal.NewFromInt(10))
	assert.True(t, got.Equal(decimal.NewFromInt(3000)))

	got = PercentOf(decimal.RequireFromString("333.33"), decimal.RequireFromString("11"))
	assert.Equal(t, "36.6663", got.String())
}
