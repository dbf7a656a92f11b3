package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// RecordRequest carries everything the ledger needs to commit one
// purchase. Units and product snapshot fields are resolved by the
// caller before the commit.
type RecordRequest struct {
	CustomerID snowflake.ID
	OutletID   snowflake.ID
	TerminalID string

	ProductID   snowflake.ID
	ProductName string
	VolumeML    float64
	ABVPercent  float64

	Units       float64
	AmountMinor int64
	Currency    string

	PaymentMethod     string
	ApprovalSessionID string
	RiskTier          string

	// DailyLimit is re-checked inside the commit transaction. The
	// advisory check the terminal ran earlier may be stale by the
	// time the commit lands.
	DailyLimit float64
}

type Service interface {
	// Record appends a purchase after re-verifying the daily limit
	// under the per-customer commit lock.
	Record(ctx context.Context, req RecordRequest) (PurchaseEntry, error)
	GetByID(ctx context.Context, id string) (PurchaseEntry, error)
	// UnitsConsumedToday sums units recorded since the start of the
	// current terminal-local day.
	UnitsConsumedToday(ctx context.Context, customerID snowflake.ID) (float64, error)
	UnitsConsumedSince(ctx context.Context, customerID snowflake.ID, since time.Time) (float64, error)
	ListByCustomer(ctx context.Context, customerID snowflake.ID, since time.Time, limit int) ([]PurchaseEntry, error)
	CountByCustomerSince(ctx context.Context, customerID snowflake.ID, since time.Time) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]PurchaseEntry, error)
}

var (
	ErrInvalidCustomer   = errors.New("invalid_customer")
	ErrInvalidProduct    = errors.New("invalid_product")
	ErrInvalidUnits      = errors.New("invalid_units")
	ErrInvalidID         = errors.New("invalid_entry_id")
	ErrNotFound          = errors.New("entry_not_found")
	ErrAllowanceExceeded = errors.New("allowance_exceeded")
	ErrCommitConflict    = errors.New("commit_conflict")
	ErrStoreUnavailable  = errors.New("store_unavailable")
)
