package domain

import (
	"context"
	"errors"
	"time"
)

type IdentifyRequest struct {
	Credential string `json:"credential"`
	TerminalID string `json:"-"`
}

type IdentifyResponse struct {
	CustomerID     string  `json:"customer_id"`
	Name           string  `json:"name"`
	RiskTier       string  `json:"risk_tier"`
	DailyLimit     float64 `json:"daily_limit"`
	ConsumedToday  float64 `json:"consumed_today"`
	RemainingUnits float64 `json:"remaining_units"`
}

type PurchaseRequest struct {
	CustomerID    string `json:"customer_id"`
	ProductID     string `json:"product_id"`
	PaymentMethod string `json:"payment_method"`
	TerminalID    string `json:"-"`
}

// Receipt is the customer-facing record of a committed purchase. The
// terminal shows it for DisplaySeconds, then returns to idle.
type Receipt struct {
	EntryID      string    `json:"entry_id"`
	CustomerID   string    `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	ProductName  string    `json:"product_name"`
	VolumeML     float64   `json:"volume_ml"`
	ABVPercent   float64   `json:"abv_percent"`
	Units        float64   `json:"units"`
	AmountMinor  int64     `json:"amount_minor"`
	Currency     string    `json:"currency"`

	RemainingUnits float64 `json:"remaining_units"`

	ApprovalSessionID string `json:"approval_session_id,omitempty"`
	RiskTier          string `json:"risk_tier"`

	RecordedAt     time.Time `json:"recorded_at"`
	DisplaySeconds int       `json:"display_seconds"`
}

// Service drives one purchase attempt end to end. Every failure is
// terminal for the attempt: the terminal returns to start, never to an
// ambiguous mid-flow state.
type Service interface {
	Identify(ctx context.Context, req IdentifyRequest) (IdentifyResponse, error)
	Purchase(ctx context.Context, req PurchaseRequest) (Receipt, error)
}

var (
	ErrRateLimited        = errors.New("identify_rate_limited")
	ErrApprovalDenied     = errors.New("approval_denied")
	ErrSessionTimedOut    = errors.New("session_timed_out")
	ErrPurchaseCancelled  = errors.New("purchase_cancelled")
	ErrChannelUnavailable = errors.New("channel_unavailable")
)
