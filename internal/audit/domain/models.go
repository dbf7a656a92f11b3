package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeTerminal ActorType = "terminal"
	ActorTypeManager  ActorType = "manager"
	ActorTypeAdmin    ActorType = "admin"
	ActorTypeSystem   ActorType = "system"
)

// Actions recorded against the gating flow.
const (
	ActionPurchaseCommitted = "purchase.committed"
	ActionPurchaseDenied    = "purchase.denied"
	ActionApprovalRequested = "approval.requested"
	ActionApprovalDecided   = "approval.decided"
	ActionApprovalTimedOut  = "approval.timed_out"
	ActionIncidentReported  = "incident.reported"
	ActionCustomerCreated   = "customer.created"
)

type AuditLog struct {
	ID         snowflake.ID      `json:"id,string" gorm:"primaryKey"`
	ActorType  string            `json:"actor_type" gorm:"size:32;index"`
	ActorID    *string           `json:"actor_id,omitempty" gorm:"size:64"`
	Action     string            `json:"action" gorm:"size:64;index"`
	TargetType string            `json:"target_type" gorm:"size:32;index"`
	TargetID   *string           `json:"target_id,omitempty" gorm:"size:64;index"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	IPAddress  *string           `json:"ip_address,omitempty" gorm:"size:64"`
	CreatedAt  time.Time         `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
