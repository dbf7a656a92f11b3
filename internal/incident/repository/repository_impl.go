package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/safeguardhq/safeguard/internal/incident/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, incident *domain.Incident) error {
	return db.WithContext(ctx).Create(incident).Error
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, since time.Time) ([]domain.Incident, error) {
	var items []domain.Incident
	q := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("occurred_at DESC")
	if !since.IsZero() {
		q = q.Where("occurred_at >= ?", since)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountByCustomerSince(ctx context.Context, db *gorm.DB, customerID snowflake.ID, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Incident{}).
		Where("customer_id = ? AND occurred_at >= ?", customerID, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
