package service

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/safeguardhq/safeguard/internal/allowance"
	"github.com/safeguardhq/safeguard/internal/clock"
	"github.com/safeguardhq/safeguard/internal/ledger/domain"
	"github.com/safeguardhq/safeguard/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Limiter *ratelimit.TerminalLimiter `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	limiter *ratelimit.TerminalLimiter

	// commitLocks serializes commits per customer within this
	// instance. The redis lock covers the cross-instance case when
	// configured; this one is always on.
	commitLocks sync.Map
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("ledger.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		limiter: p.Limiter,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (domain.PurchaseEntry, error) {
	if req.CustomerID == 0 {
		return domain.PurchaseEntry{}, domain.ErrInvalidCustomer
	}
	if req.ProductID == 0 {
		return domain.PurchaseEntry{}, domain.ErrInvalidProduct
	}
	if req.Units <= 0 {
		return domain.PurchaseEntry{}, domain.ErrInvalidUnits
	}

	mu := s.lockFor(req.CustomerID)
	mu.Lock()
	defer mu.Unlock()

	if s.limiter.Enabled() {
		token, ok, err := s.limiter.TryLockCustomer(ctx, req.CustomerID.String())
		if err != nil {
			s.log.Warn("commit lock unavailable", zap.Error(err))
			return domain.PurchaseEntry{}, domain.ErrStoreUnavailable
		}
		if !ok {
			return domain.PurchaseEntry{}, domain.ErrCommitConflict
		}
		defer func() {
			if err := s.limiter.ReleaseCustomer(ctx, req.CustomerID.String(), token); err != nil {
				s.log.Warn("commit lock release failed", zap.Error(err))
			}
		}()
	}

	now := s.clock.Now()
	dayStart := clock.StartOfDay(now)

	entry := domain.PurchaseEntry{
		ID:                s.genID.Generate(),
		CustomerID:        req.CustomerID,
		OutletID:          req.OutletID,
		TerminalID:        req.TerminalID,
		ProductID:         req.ProductID,
		ProductName:       req.ProductName,
		VolumeML:          req.VolumeML,
		ABVPercent:        req.ABVPercent,
		Units:             req.Units,
		AmountMinor:       req.AmountMinor,
		Currency:          req.Currency,
		PaymentMethod:     req.PaymentMethod,
		ApprovalSessionID: req.ApprovalSessionID,
		RiskTier:          req.RiskTier,
		Metadata:          datatypes.JSONMap{},
		RecordedAt:        now,
		CreatedAt:         now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The advisory check ran outside this transaction, so the
		// limit is verified again against what is actually on disk.
		consumed, err := s.repo.SumUnitsSince(ctx, tx, req.CustomerID, dayStart)
		if err != nil {
			return err
		}
		remaining := allowance.Remaining(req.DailyLimit, consumed)
		if !allowance.CanPurchase(remaining, req.Units) {
			return domain.ErrAllowanceExceeded
		}
		return s.repo.Insert(ctx, tx, &entry)
	})
	if err != nil {
		return domain.PurchaseEntry{}, err
	}

	return entry, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.PurchaseEntry, error) {
	parsed, err := snowflake.ParseString(id)
	if err != nil || parsed == 0 {
		return domain.PurchaseEntry{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.PurchaseEntry{}, err
	}
	if item == nil {
		return domain.PurchaseEntry{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) UnitsConsumedToday(ctx context.Context, customerID snowflake.ID) (float64, error) {
	return s.UnitsConsumedSince(ctx, customerID, clock.StartOfDay(s.clock.Now()))
}

func (s *Service) UnitsConsumedSince(ctx context.Context, customerID snowflake.ID, since time.Time) (float64, error) {
	if customerID == 0 {
		return 0, domain.ErrInvalidCustomer
	}
	return s.repo.SumUnitsSince(ctx, s.db, customerID, since)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID snowflake.ID, since time.Time, limit int) ([]domain.PurchaseEntry, error) {
	if customerID == 0 {
		return nil, domain.ErrInvalidCustomer
	}
	return s.repo.ListByCustomer(ctx, s.db, customerID, since, limit)
}

func (s *Service) CountByCustomerSince(ctx context.Context, customerID snowflake.ID, since time.Time) (int64, error) {
	if customerID == 0 {
		return 0, domain.ErrInvalidCustomer
	}
	return s.repo.CountByCustomerSince(ctx, s.db, customerID, since)
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]domain.PurchaseEntry, error) {
	return s.repo.ListRecent(ctx, s.db, limit)
}

func (s *Service) lockFor(customerID snowflake.ID) *sync.Mutex {
	actual, _ := s.commitLocks.LoadOrStore(customerID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
