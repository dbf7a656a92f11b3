package outlet

import (
	"github.com/safeguardhq/safeguard/internal/outlet/repository"
	"github.com/safeguardhq/safeguard/internal/outlet/service"
	"go.uber.org/fx"
)

var Module = fx.Module("outlet.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
