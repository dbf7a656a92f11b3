package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Product is a catalog item. Price is stored in minor units (paise)
// to keep arithmetic exact.
type Product struct {
	ID         snowflake.ID      `json:"id,string" gorm:"primaryKey"`
	SKU        string            `json:"sku" gorm:"uniqueIndex;size:64"`
	Name       string            `json:"name"`
	Category   string            `json:"category" gorm:"index;size:32"`
	VolumeML   float64           `json:"volume_ml"`
	ABVPercent float64           `json:"abv_percent"`
	PriceMinor int64             `json:"price_minor"`
	Currency   string            `json:"currency" gorm:"size:8"`
	Active     bool              `json:"active" gorm:"index"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// Units is the standardized alcohol content of one item:
// volume (ml) multiplied by strength (% ABV), divided by 1000.
// A 650ml bottle at 5% ABV is 3.25 units.
func (p Product) Units() float64 {
	return p.VolumeML * p.ABVPercent / 1000
}
