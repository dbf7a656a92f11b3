package risk

import (
	"github.com/safeguardhq/safeguard/internal/risk/service"
	"go.uber.org/fx"
)

var Module = fx.Module("risk.service",
	fx.Provide(service.NewRouter),
	fx.Provide(service.NewClassifier),
)
