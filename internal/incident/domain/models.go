package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type IncidentType string

const (
	IncidentAltercation        IncidentType = "altercation"
	IncidentPublicIntoxication IncidentType = "public_intoxication"
	IncidentFraudAttempt       IncidentType = "fraud_attempt"
	IncidentCredentialMisuse   IncidentType = "credential_misuse"
	IncidentOther              IncidentType = "other"
)

// Incident is a staff-reported event tied to a customer. Incidents feed
// the risk classifier's score.
type Incident struct {
	ID          snowflake.ID      `json:"id,string" gorm:"primaryKey"`
	CustomerID  snowflake.ID      `json:"customer_id,string" gorm:"not null;index"`
	OutletID    snowflake.ID      `json:"outlet_id,string" gorm:"index"`
	Type        IncidentType      `json:"type" gorm:"size:32;index"`
	Severity    int               `json:"severity"` // 1 (minor) .. 5 (severe)
	Description string            `json:"description"`
	ReportedBy  string            `json:"reported_by" gorm:"size:32"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	OccurredAt  time.Time         `json:"occurred_at" gorm:"not null;index"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (Incident) TableName() string {
	return "incidents"
}
