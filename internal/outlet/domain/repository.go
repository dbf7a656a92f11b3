package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, outlet *Outlet) error
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Outlet, error)
	List(ctx context.Context, db *gorm.DB) ([]Outlet, error)
}
