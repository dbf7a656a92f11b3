package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/safeguardhq/safeguard/internal/clock"
	"github.com/safeguardhq/safeguard/internal/incident/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("incident.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

var validTypes = map[domain.IncidentType]struct{}{
	domain.IncidentAltercation:        {},
	domain.IncidentPublicIntoxication: {},
	domain.IncidentFraudAttempt:       {},
	domain.IncidentCredentialMisuse:   {},
	domain.IncidentOther:              {},
}

func (s *Service) Report(ctx context.Context, req domain.ReportIncidentRequest) (domain.Incident, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return domain.Incident{}, domain.ErrInvalidCustomer
	}
	if _, ok := validTypes[req.Type]; !ok {
		return domain.Incident{}, domain.ErrInvalidType
	}
	if req.Severity < 1 || req.Severity > 5 {
		return domain.Incident{}, domain.ErrInvalidSeverity
	}

	var outletID snowflake.ID
	if trimmed := strings.TrimSpace(req.OutletID); trimmed != "" {
		outletID, _ = snowflake.ParseString(trimmed)
	}

	now := s.clock.Now()
	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	incident := domain.Incident{
		ID:          s.genID.Generate(),
		CustomerID:  customerID,
		OutletID:    outletID,
		Type:        req.Type,
		Severity:    req.Severity,
		Description: strings.TrimSpace(req.Description),
		ReportedBy:  req.ReportedBy,
		Metadata:    datatypes.JSONMap{},
		OccurredAt:  occurredAt,
		CreatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &incident); err != nil {
		return domain.Incident{}, err
	}

	s.log.Info("incident reported",
		zap.String("customer_id", customerID.String()),
		zap.String("type", string(req.Type)),
		zap.Int("severity", req.Severity),
	)

	return incident, nil
}

func (s *Service) ListByCustomer(ctx context.Context, customerID snowflake.ID, since time.Time) ([]domain.Incident, error) {
	if customerID == 0 {
		return nil, domain.ErrInvalidCustomer
	}
	return s.repo.ListByCustomer(ctx, s.db, customerID, since)
}

func (s *Service) CountByCustomerSince(ctx context.Context, customerID snowflake.ID, since time.Time) (int64, error) {
	if customerID == 0 {
		return 0, domain.ErrInvalidCustomer
	}
	return s.repo.CountByCustomerSince(ctx, s.db, customerID, since)
}
