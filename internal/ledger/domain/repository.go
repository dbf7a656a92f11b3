package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *PurchaseEntry) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PurchaseEntry, error)
	// SumUnitsSince totals units recorded at or after the cutoff.
	SumUnitsSince(ctx context.Context, db *gorm.DB, customerID snowflake.ID, since time.Time) (float64, error)
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, since time.Time, limit int) ([]PurchaseEntry, error)
	CountByCustomerSince(ctx context.Context, db *gorm.DB, customerID snowflake.ID, since time.Time) (int64, error)
	ListRecent(ctx context.Context, db *gorm.DB, limit int) ([]PurchaseEntry, error)
}
