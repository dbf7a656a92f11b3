package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateCustomerRequest struct {
	Credential string
	Name       string
	Age        int
	Phone      string
}

type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (Customer, error)
	GetByID(ctx context.Context, id string) (Customer, error)
	// FindByCredential is the identity lookup used by the terminal flow.
	FindByCredential(ctx context.Context, credential string) (Customer, error)
	// RecordPurchaseStats bumps the running totals after a commit.
	RecordPurchaseStats(ctx context.Context, id snowflake.ID, units float64) error
}

var (
	ErrInvalidCredential = errors.New("invalid_credential")
	ErrInvalidName       = errors.New("invalid_name")
	ErrUnderage          = errors.New("underage")
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("not_found")
	ErrBlocked           = errors.New("blocked")
	ErrDuplicate         = errors.New("duplicate_credential")
)
