package audit

import (
	"github.com/safeguardhq/safeguard/internal/audit/repository"
	"github.com/safeguardhq/safeguard/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
