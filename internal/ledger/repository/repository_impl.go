package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/safeguardhq/safeguard/internal/ledger/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.PurchaseEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PurchaseEntry, error) {
	var entry domain.PurchaseEntry
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repo) SumUnitsSince(ctx context.Context, db *gorm.DB, customerID snowflake.ID, since time.Time) (float64, error) {
	var total float64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(units), 0)
		 FROM purchase_entries
		 WHERE customer_id = ? AND recorded_at >= ?`,
		customerID,
		since,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, since time.Time, limit int) ([]domain.PurchaseEntry, error) {
	var items []domain.PurchaseEntry
	q := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("recorded_at DESC")
	if !since.IsZero() {
		q = q.Where("recorded_at >= ?", since)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountByCustomerSince(ctx context.Context, db *gorm.DB, customerID snowflake.ID, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.PurchaseEntry{}).
		Where("customer_id = ? AND recorded_at >= ?", customerID, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) ListRecent(ctx context.Context, db *gorm.DB, limit int) ([]domain.PurchaseEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []domain.PurchaseEntry
	err := db.WithContext(ctx).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
