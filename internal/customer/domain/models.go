package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Customer is a registered buyer. The credential is the masked identity key
// presented at the terminal; identity-document capture happens upstream.
type Customer struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	Credential string            `gorm:"not null;uniqueIndex" json:"credential"`
	Name       string            `gorm:"not null" json:"name"`
	Age        int               `gorm:"not null" json:"age"`
	Phone      string            `json:"phone,omitempty"`
	Blocked    bool              `gorm:"not null;default:false" json:"blocked"`

	// Last classifier output, kept for operator visibility. Gating always
	// re-fetches the tier through the classifier, never from this cache.
	RiskScore float64 `gorm:"not null;default:0" json:"risk_score"`
	RiskTier  string  `gorm:"not null;default:'low'" json:"risk_tier"`

	TotalPurchases int     `gorm:"not null;default:0" json:"total_purchases"`
	TotalUnits     float64 `gorm:"not null;default:0" json:"total_units"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }
