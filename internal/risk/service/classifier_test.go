package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/safeguardhq/safeguard/internal/clock"
	"github.com/safeguardhq/safeguard/internal/config"
	customerdomain "github.com/safeguardhq/safeguard/internal/customer/domain"
	customerrepo "github.com/safeguardhq/safeguard/internal/customer/repository"
	incidentdomain "github.com/safeguardhq/safeguard/internal/incident/domain"
	incidentrepo "github.com/safeguardhq/safeguard/internal/incident/repository"
	incidentservice "github.com/safeguardhq/safeguard/internal/incident/service"
	ledgerdomain "github.com/safeguardhq/safeguard/internal/ledger/domain"
	ledgerrepo "github.com/safeguardhq/safeguard/internal/ledger/repository"
	ledgerservice "github.com/safeguardhq/safeguard/internal/ledger/service"
	"github.com/safeguardhq/safeguard/internal/risk/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type classifierFixture struct {
	classifier domain.Classifier
	ledger     ledgerdomain.Service
	incidents  incidentdomain.Service
	db         *gorm.DB
	clk        *clock.FakeClock
	customerID snowflake.ID
}

func newClassifierFixture(t *testing.T) *classifierFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&ledgerdomain.PurchaseEntry{},
		&incidentdomain.Incident{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))

	custRepo := customerrepo.Provide()
	customer := customerdomain.Customer{ID: node.Generate(), Credential: "CRED-1", Name: "Test", Age: 30}
	require.NoError(t, custRepo.Insert(context.Background(), db, &customer))

	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		DB: db, Log: zap.NewNop(), GenID: node, Clock: clk, Repo: ledgerrepo.Provide(),
	})
	incidentSvc := incidentservice.New(incidentservice.Params{
		DB: db, Log: zap.NewNop(), GenID: node, Clock: clk, Repo: incidentrepo.Provide(),
	})

	classifier := NewClassifier(ClassifierParams{
		DB:           db,
		Log:          zap.NewNop(),
		Clock:        clk,
		Policies:     config.StaticPolicyHolder(config.DefaultPolicy()),
		Ledger:       ledgerSvc,
		Incidents:    incidentSvc,
		CustomerRepo: custRepo,
	})

	return &classifierFixture{
		classifier: classifier,
		ledger:     ledgerSvc,
		incidents:  incidentSvc,
		db:         db,
		clk:        clk,
		customerID: customer.ID,
	}
}

func (f *classifierFixture) record(t *testing.T, units float64) {
	t.Helper()
	_, err := f.ledger.Record(context.Background(), ledgerdomain.RecordRequest{
		CustomerID:  f.customerID,
		ProductID:   snowflake.ID(7),
		ProductName: "Test Lager",
		Units:       units,
		DailyLimit:  1000, // not under test here
	})
	require.NoError(t, err)
}

func TestTierOfCleanHistoryIsLow(t *testing.T) {
	f := newClassifierFixture(t)

	assessment, err := f.classifier.TierOf(context.Background(), f.customerID)
	require.NoError(t, err)
	assert.Equal(t, domain.TierLow, assessment.Tier)
	assert.Zero(t, assessment.Score)
	assert.Empty(t, assessment.Factors)
}

func TestTierOfHeavyHistoryEscalates(t *testing.T) {
	f := newClassifierFixture(t)

	// 21 purchases of 5 units each across three weeks: trips both the
	// frequency and volume factors.
	for i := 0; i < 21; i++ {
		f.record(t, 5)
		f.clk.Advance(24 * time.Hour)
	}

	assessment, err := f.classifier.TierOf(context.Background(), f.customerID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, assessment.Score, 50.0)
	assert.Equal(t, domain.TierMedium, assessment.Tier)
	assert.NotEmpty(t, assessment.Factors)

	// The score is written back to the customer row.
	var customer customerdomain.Customer
	require.NoError(t, f.db.Where("id = ?", f.customerID).Take(&customer).Error)
	assert.Equal(t, string(domain.TierMedium), customer.RiskTier)
	assert.InDelta(t, assessment.Score, customer.RiskScore, 1e-9)
}

func TestTierOfIncidentsPushHigh(t *testing.T) {
	f := newClassifierFixture(t)

	for i := 0; i < 21; i++ {
		f.record(t, 5)
		f.clk.Advance(24 * time.Hour)
	}
	for i := 0; i < 3; i++ {
		_, err := f.incidents.Report(context.Background(), incidentdomain.ReportIncidentRequest{
			CustomerID: f.customerID.String(),
			Type:       incidentdomain.IncidentAltercation,
			Severity:   4,
			ReportedBy: "manager",
		})
		require.NoError(t, err)
	}

	assessment, err := f.classifier.TierOf(context.Background(), f.customerID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, assessment.Score, 70.0)
	assert.Equal(t, domain.TierHigh, assessment.Tier)
}
