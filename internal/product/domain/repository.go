package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindBySKU(ctx context.Context, db *gorm.DB, sku string) (*Product, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Product, error)
	SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error
}
