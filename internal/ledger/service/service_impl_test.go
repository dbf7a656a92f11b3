package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/safeguardhq/safeguard/internal/clock"
	"github.com/safeguardhq/safeguard/internal/ledger/domain"
	"github.com/safeguardhq/safeguard/internal/ledger/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T, clk clock.Clock) (domain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.PurchaseEntry{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	})
	return svc, db
}

func recordReq(customerID snowflake.ID, units, limit float64) domain.RecordRequest {
	return domain.RecordRequest{
		CustomerID:  customerID,
		ProductID:   snowflake.ID(42),
		ProductName: "Test Lager 650ml",
		VolumeML:    650,
		ABVPercent:  5,
		Units:       units,
		AmountMinor: 16000,
		Currency:    "INR",
		DailyLimit:  limit,
		RiskTier:    "low",
	}
}

func TestRecordAppendsEntry(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clk)
	ctx := context.Background()

	entry, err := svc.Record(ctx, recordReq(1001, 3.25, 5))
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.Equal(t, clk.Now(), entry.RecordedAt)

	total, err := svc.UnitsConsumedToday(ctx, 1001)
	require.NoError(t, err)
	assert.InDelta(t, 3.25, total, 1e-9)
}

func TestRecordRejectsOverLimit(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clk)
	ctx := context.Background()

	_, err := svc.Record(ctx, recordReq(1001, 3.25, 5))
	require.NoError(t, err)

	// 3.25 consumed, 1.75 remaining; another 3.25 does not fit.
	_, err = svc.Record(ctx, recordReq(1001, 3.25, 5))
	assert.ErrorIs(t, err, domain.ErrAllowanceExceeded)

	// A smaller purchase that lands exactly on the limit goes through.
	_, err = svc.Record(ctx, recordReq(1001, 1.75, 5))
	assert.NoError(t, err)

	total, err := svc.UnitsConsumedToday(ctx, 1001)
	require.NoError(t, err)
	assert.InDelta(t, 5, total, 1e-9)
}

func TestRecordResetsAtStartOfDay(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC))
	svc, _ := newTestService(t, clk)
	ctx := context.Background()

	_, err := svc.Record(ctx, recordReq(1001, 5, 5))
	require.NoError(t, err)

	_, err = svc.Record(ctx, recordReq(1001, 1, 5))
	assert.ErrorIs(t, err, domain.ErrAllowanceExceeded)

	// Past midnight yesterday's entries no longer count.
	clk.Advance(time.Hour)

	_, err = svc.Record(ctx, recordReq(1001, 5, 5))
	assert.NoError(t, err)

	total, err := svc.UnitsConsumedToday(ctx, 1001)
	require.NoError(t, err)
	assert.InDelta(t, 5, total, 1e-9)
}

func TestRecordValidation(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clk)
	ctx := context.Background()

	_, err := svc.Record(ctx, domain.RecordRequest{ProductID: 1, Units: 1, DailyLimit: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)

	_, err = svc.Record(ctx, domain.RecordRequest{CustomerID: 1, Units: 1, DailyLimit: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)

	_, err = svc.Record(ctx, domain.RecordRequest{CustomerID: 1, ProductID: 1, Units: 0, DailyLimit: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidUnits)
}

func TestRecordConcurrentCommitsNeverOvershoot(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clk)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Record(ctx, recordReq(1001, 1, 5))
		}(i)
	}
	wg.Wait()

	committed := 0
	for _, err := range errs {
		if err == nil {
			committed++
		} else {
			assert.ErrorIs(t, err, domain.ErrAllowanceExceeded)
		}
	}
	assert.Equal(t, 5, committed)

	total, err := svc.UnitsConsumedToday(ctx, 1001)
	require.NoError(t, err)
	assert.InDelta(t, 5, total, 1e-9)
}

func TestListByCustomerOrderedNewestFirst(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clk)
	ctx := context.Background()

	_, err := svc.Record(ctx, recordReq(1001, 1, 10))
	require.NoError(t, err)
	clk.Advance(time.Minute)
	_, err = svc.Record(ctx, recordReq(1001, 2, 10))
	require.NoError(t, err)

	items, err := svc.ListByCustomer(ctx, 1001, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.InDelta(t, 2, items[0].Units, 1e-9)
	assert.InDelta(t, 1, items[1].Units, 1e-9)
}
