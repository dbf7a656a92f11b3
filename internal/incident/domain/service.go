package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type ReportIncidentRequest struct {
	CustomerID  string       `json:"customer_id"`
	OutletID    string       `json:"outlet_id,omitempty"`
	Type        IncidentType `json:"type"`
	Severity    int          `json:"severity"`
	Description string       `json:"description"`
	ReportedBy  string       `json:"-"`
	OccurredAt  time.Time    `json:"occurred_at,omitempty"`
}

type Service interface {
	Report(ctx context.Context, req ReportIncidentRequest) (Incident, error)
	ListByCustomer(ctx context.Context, customerID snowflake.ID, since time.Time) ([]Incident, error)
	CountByCustomerSince(ctx context.Context, customerID snowflake.ID, since time.Time) (int64, error)
}

var (
	ErrInvalidCustomer = errors.New("invalid_incident_customer")
	ErrInvalidType     = errors.New("invalid_incident_type")
	ErrInvalidSeverity = errors.New("invalid_incident_severity")
)
