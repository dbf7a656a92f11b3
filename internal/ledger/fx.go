package ledger

import (
	"github.com/safeguardhq/safeguard/internal/ledger/repository"
	"github.com/safeguardhq/safeguard/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
