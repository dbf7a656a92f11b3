package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	FindByCredential(ctx context.Context, db *gorm.DB, credential string) (*Customer, error)
	UpdateStats(ctx context.Context, db *gorm.DB, id snowflake.ID, units float64) error
	UpdateRisk(ctx context.Context, db *gorm.DB, id snowflake.ID, score float64, tier string) error
}
