package repository

import (
	"context"
	"strings"

	"github.com/safeguardhq/safeguard/internal/outlet/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, outlet *domain.Outlet) error {
	return db.WithContext(ctx).Create(outlet).Error
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slugValue string) (*domain.Outlet, error) {
	var outlet domain.Outlet
	err := db.WithContext(ctx).
		Where("slug = ?", strings.TrimSpace(slugValue)).
		Take(&outlet).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &outlet, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Outlet, error) {
	var items []domain.Outlet
	err := db.WithContext(ctx).
		Order("district, name").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
