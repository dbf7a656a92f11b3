package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductUnits(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    float64
	}{
		{
			name:    "lager 650ml 5%",
			product: Product{VolumeML: 650, ABVPercent: 5},
			want:    3.25,
		},
		{
			name:    "whisky 750ml 42.8%",
			product: Product{VolumeML: 750, ABVPercent: 42.8},
			want:    32.1,
		},
		{
			name:    "quarter 180ml 42.8%",
			product: Product{VolumeML: 180, ABVPercent: 42.8},
			want:    7.704,
		},
		{
			name:    "zero volume",
			product: Product{VolumeML: 0, ABVPercent: 40},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.product.Units(), 1e-9)
		})
	}
}
