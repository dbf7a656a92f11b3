package domain

import (
	"context"
	"errors"
)

type CreateOutletRequest struct {
	Name     string `json:"name"`
	District string `json:"district"`
	Address  string `json:"address"`
}

type Service interface {
	Create(ctx context.Context, req CreateOutletRequest) (Outlet, error)
	GetBySlug(ctx context.Context, slug string) (Outlet, error)
	List(ctx context.Context) ([]Outlet, error)
}

var (
	ErrInvalidName = errors.New("invalid_outlet_name")
	ErrNotFound    = errors.New("outlet_not_found")
	ErrDuplicate   = errors.New("duplicate_outlet")
)
