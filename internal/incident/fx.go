package incident

import (
	"github.com/safeguardhq/safeguard/internal/incident/repository"
	"github.com/safeguardhq/safeguard/internal/incident/service"
	"go.uber.org/fx"
)

var Module = fx.Module("incident.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
