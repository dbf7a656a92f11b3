package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, incident *Incident) error
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, since time.Time) ([]Incident, error)
	CountByCustomerSince(ctx context.Context, db *gorm.DB, customerID snowflake.ID, since time.Time) (int64, error)
}
