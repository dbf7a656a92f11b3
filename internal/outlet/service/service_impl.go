package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/safeguardhq/safeguard/internal/outlet/domain"
	"github.com/safeguardhq/safeguard/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("outlet.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOutletRequest) (domain.Outlet, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Outlet{}, domain.ErrInvalidName
	}

	district := strings.TrimSpace(req.District)
	slugValue := slug.Make(name)
	if district != "" {
		slugValue = slug.Make(district + " " + name)
	}

	now := time.Now().UTC()
	outlet := domain.Outlet{
		ID:        s.genID.Generate(),
		Slug:      slugValue,
		Name:      name,
		District:  district,
		Address:   strings.TrimSpace(req.Address),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &outlet); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Outlet{}, domain.ErrDuplicate
		}
		return domain.Outlet{}, err
	}

	return outlet, nil
}

func (s *Service) GetBySlug(ctx context.Context, slugValue string) (domain.Outlet, error) {
	item, err := s.repo.FindBySlug(ctx, s.db, slugValue)
	if err != nil {
		return domain.Outlet{}, err
	}
	if item == nil {
		return domain.Outlet{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Outlet, error) {
	return s.repo.List(ctx, s.db)
}
