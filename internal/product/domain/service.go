package domain

import (
	"context"
	"errors"
)

type CreateProductRequest struct {
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	VolumeML   float64 `json:"volume_ml"`
	ABVPercent float64 `json:"abv_percent"`
	PriceMinor int64   `json:"price_minor"`
	Currency   string  `json:"currency"`
}

type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (Product, error)
	GetByID(ctx context.Context, id string) (Product, error)
	List(ctx context.Context) ([]Product, error)
	Deactivate(ctx context.Context, id string) error
}

var (
	ErrInvalidSKU      = errors.New("invalid_sku")
	ErrInvalidName     = errors.New("invalid_product_name")
	ErrInvalidVolume   = errors.New("invalid_volume")
	ErrInvalidStrength = errors.New("invalid_strength")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidID       = errors.New("invalid_product_id")
	ErrNotFound        = errors.New("product_not_found")
	ErrInactive        = errors.New("product_inactive")
	ErrDuplicateSKU    = errors.New("duplicate_sku")
)
