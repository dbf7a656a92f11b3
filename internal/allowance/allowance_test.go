package allowance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	tests := []struct {
		name     string
		limit    float64
		consumed float64
		want     float64
	}{
		{name: "untouched limit", limit: 5, consumed: 0, want: 5},
		{name: "partial consumption", limit: 5, consumed: 3.25, want: 1.75},
		{name: "exactly at limit", limit: 5, consumed: 5, want: 0},
		{name: "overshoot clamps to zero", limit: 5, consumed: 7.7, want: 0},
		{name: "limit lowered below history", limit: 3, consumed: 4.5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Remaining(tt.limit, tt.consumed), 1e-9)
		})
	}
}

func TestCanPurchase(t *testing.T) {
	tests := []struct {
		name      string
		remaining float64
		units     float64
		want      bool
	}{
		{name: "fits with room", remaining: 5, units: 3.25, want: true},
		{name: "exact fit allowed", remaining: 3.25, units: 3.25, want: true},
		{name: "over by a fraction", remaining: 3.2, units: 3.25, want: false},
		{name: "nothing remaining", remaining: 0, units: 0.5, want: false},
		{name: "zero unit purchase", remaining: 0, units: 0, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanPurchase(tt.remaining, tt.units))
		})
	}
}
