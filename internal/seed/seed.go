package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	customerdomain "github.com/safeguardhq/safeguard/internal/customer/domain"
	outletdomain "github.com/safeguardhq/safeguard/internal/outlet/domain"
	productdomain "github.com/safeguardhq/safeguard/internal/product/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type demoProduct struct {
	sku        string
	name       string
	category   string
	volumeML   float64
	abvPercent float64
	priceMinor int64
}

type demoCustomer struct {
	credential string
	name       string
	age        int
}

var demoProducts = []demoProduct{
	{"BEER-KF-650", "Kingfisher Beer", "beer", 650, 5.0, 15000},
	{"BEER-KFS-650", "Kingfisher Strong", "beer", 650, 8.0, 18000},
	{"WHSK-RS-750", "Royal Stag", "whiskey", 750, 42.8, 120000},
	{"WHSK-MD-375", "McDowell No.1", "whiskey", 375, 42.8, 65000},
	{"RUM-OM-750", "Old Monk Rum", "rum", 750, 42.8, 60000},
	{"VODK-MM-750", "Magic Moments Vodka", "vodka", 750, 40.0, 80000},
}

var demoCustomers = []demoCustomer{
	{"CUST-2024-1001", "Ravi Kumar", 34},
	{"CUST-2024-1002", "Anita Sharma", 28},
	{"CUST-2024-1003", "Suresh Babu", 47},
}

const (
	demoOutletName     = "Gandhi Nagar Wines"
	demoOutletDistrict = "Hyderabad"
	demoOutletAddress  = "Shop 12, Gandhi Nagar Main Road"
)

// EnsureDemoData seeds a demo outlet, the product catalog, and a few
// registered customers so a fresh deployment is exercisable end to end.
// Every insert is keyed on a natural identifier, so reruns are no-ops.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureOutlet(ctx, tx, node); err != nil {
			return err
		}
		if err := ensureProducts(ctx, tx, node); err != nil {
			return err
		}
		return ensureCustomers(ctx, tx, node)
	})
}

func ensureOutlet(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	outletSlug := slug.Make(demoOutletDistrict + " " + demoOutletName)

	var existing outletdomain.Outlet
	err := tx.WithContext(ctx).Where("slug = ?", outletSlug).Take(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	return tx.WithContext(ctx).Create(&outletdomain.Outlet{
		ID:        node.Generate(),
		Slug:      outletSlug,
		Name:      demoOutletName,
		District:  demoOutletDistrict,
		Address:   demoOutletAddress,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error
}

func ensureProducts(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	for _, item := range demoProducts {
		var existing productdomain.Product
		err := tx.WithContext(ctx).Where("sku = ?", item.sku).Take(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		if err := tx.WithContext(ctx).Create(&productdomain.Product{
			ID:         node.Generate(),
			SKU:        item.sku,
			Name:       item.name,
			Category:   item.category,
			VolumeML:   item.volumeML,
			ABVPercent: item.abvPercent,
			PriceMinor: item.priceMinor,
			Currency:   "INR",
			Active:     true,
			Metadata:   datatypes.JSONMap{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureCustomers(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	for _, item := range demoCustomers {
		var existing customerdomain.Customer
		err := tx.WithContext(ctx).Where("credential = ?", item.credential).Take(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		if err := tx.WithContext(ctx).Create(&customerdomain.Customer{
			ID:         node.Generate(),
			Credential: item.credential,
			Name:       item.name,
			Age:        item.age,
			RiskTier:   "low",
			Metadata:   datatypes.JSONMap{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}
