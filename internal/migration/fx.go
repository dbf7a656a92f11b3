package migration

import (
	"strings"

	auditdomain "github.com/safeguardhq/safeguard/internal/audit/domain"
	"github.com/safeguardhq/safeguard/internal/config"
	customerdomain "github.com/safeguardhq/safeguard/internal/customer/domain"
	incidentdomain "github.com/safeguardhq/safeguard/internal/incident/domain"
	ledgerdomain "github.com/safeguardhq/safeguard/internal/ledger/domain"
	outletdomain "github.com/safeguardhq/safeguard/internal/outlet/domain"
	productdomain "github.com/safeguardhq/safeguard/internal/product/domain"
	"github.com/safeguardhq/safeguard/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if strings.EqualFold(cfg.DBType, "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Non-postgres dialects (sqlite for local work) fall back
			// to gorm's schema sync.
			if err := conn.AutoMigrate(
				&customerdomain.Customer{},
				&productdomain.Product{},
				&outletdomain.Outlet{},
				&ledgerdomain.PurchaseEntry{},
				&incidentdomain.Incident{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
