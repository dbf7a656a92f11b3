package terminal

import (
	"github.com/safeguardhq/safeguard/internal/terminal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("terminal.service",
	fx.Provide(service.New),
)
