package domain

import (
	"context"
	"errors"
	"time"
)

// State is the lifecycle of one approval session. Waiting is the only
// non-terminal state; a session transitions exactly once.
type State string

const (
	StateWaiting   State = "waiting"
	StateApproved  State = "approved"
	StateDenied    State = "denied"
	StateTimedOut  State = "timed_out"
	StateCancelled State = "cancelled"
)

// Terminal reports whether the state ends the session.
func (s State) Terminal() bool {
	return s != StateWaiting
}

// Request is the payload shown on the manager console. Everything the
// manager needs to decide is snapshotted here; the console never goes
// back to the database mid-decision.
type Request struct {
	SessionID      string    `json:"session_id"`
	TerminalID     string    `json:"terminal_id"`
	CustomerID     string    `json:"customer_id"`
	CustomerName   string    `json:"customer_name"`
	RiskTier       string    `json:"risk_tier"`
	RiskScore      float64   `json:"risk_score"`
	RiskFactors    []string  `json:"risk_factors,omitempty"`
	ProductSummary string    `json:"product_summary"`
	Units          float64   `json:"units"`
	AmountMinor    int64     `json:"amount_minor"`
	RequestedAt    time.Time `json:"requested_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Outcome is the terminal result of a session.
type Outcome struct {
	SessionID string    `json:"session_id"`
	State     State     `json:"state"`
	DecidedBy string    `json:"decided_by,omitempty"`
	DecidedAt time.Time `json:"decided_at"`
}

type OpenRequest struct {
	TerminalID     string
	CustomerID     string
	CustomerName   string
	RiskTier       string
	RiskScore      float64
	RiskFactors    []string
	ProductSummary string
	Units          float64
	AmountMinor    int64
}

type Service interface {
	// Open registers a session and publishes the request to the
	// manager channel. One in-flight session per terminal.
	Open(ctx context.Context, req OpenRequest) (Request, error)
	// Wait blocks until the session reaches a terminal state. A
	// cancelled context cancels the session itself: a dead terminal
	// must not leave a decidable request behind.
	Wait(ctx context.Context, sessionID string) (Outcome, error)
	// Decide applies a manager decision. Late decisions against a
	// resolved session are discarded with ErrAlreadyResolved.
	Decide(ctx context.Context, sessionID string, approved bool, decidedBy string) (Outcome, error)
	// Cancel resolves a waiting session as cancelled.
	Cancel(ctx context.Context, sessionID string) error
	Pending(ctx context.Context) []Request
}

var (
	ErrNotFound        = errors.New("session_not_found")
	ErrAlreadyResolved = errors.New("session_already_resolved")
	ErrTerminalBusy    = errors.New("terminal_busy")
	ErrInvalidRequest  = errors.New("invalid_approval_request")
)
