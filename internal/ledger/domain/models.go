package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PurchaseEntry is one committed purchase. Rows are append-only: the
// daily consumption total is always derived by summing entries, never
// by mutating a counter in place.
type PurchaseEntry struct {
	ID         snowflake.ID `json:"id,string" gorm:"primaryKey"`
	CustomerID snowflake.ID `json:"customer_id,string" gorm:"not null;index:ix_purchase_entries_customer_recorded,priority:1"`
	OutletID   snowflake.ID `json:"outlet_id,string" gorm:"index"`
	TerminalID string       `json:"terminal_id" gorm:"index;size:64"`

	// Product fields are snapshotted at commit time so catalog edits
	// never rewrite history.
	ProductID   snowflake.ID `json:"product_id,string" gorm:"not null;index"`
	ProductName string       `json:"product_name"`
	VolumeML    float64      `json:"volume_ml"`
	ABVPercent  float64      `json:"abv_percent"`

	Units       float64 `json:"units" gorm:"not null"`
	AmountMinor int64   `json:"amount_minor" gorm:"not null"`
	Currency    string  `json:"currency" gorm:"size:8"`

	PaymentMethod     string `json:"payment_method" gorm:"size:32"`
	ApprovalSessionID string `json:"approval_session_id,omitempty" gorm:"size:64"`
	RiskTier          string `json:"risk_tier" gorm:"size:16"`

	Metadata   datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	RecordedAt time.Time         `json:"recorded_at" gorm:"not null;index:ix_purchase_entries_customer_recorded,priority:2"`
	CreatedAt  time.Time         `json:"created_at"`
}

func (PurchaseEntry) TableName() string {
	return "purchase_entries"
}
