package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/safeguardhq/safeguard/internal/customer/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&customer).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repo) FindByCredential(ctx context.Context, db *gorm.DB, credential string) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).
		Where("credential = ?", strings.TrimSpace(credential)).
		Take(&customer).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *repo) UpdateStats(ctx context.Context, db *gorm.DB, id snowflake.ID, units float64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers
		 SET total_purchases = total_purchases + 1,
		     total_units = total_units + ?,
		     updated_at = ?
		 WHERE id = ?`,
		units,
		time.Now().UTC(),
		id,
	).Error
}

func (r *repo) UpdateRisk(ctx context.Context, db *gorm.DB, id snowflake.ID, score float64, tier string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers
		 SET risk_score = ?, risk_tier = ?, updated_at = ?
		 WHERE id = ?`,
		score,
		tier,
		time.Now().UTC(),
		id,
	).Error
}
