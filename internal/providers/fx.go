package providers

import (
	"github.com/safeguardhq/safeguard/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	pdf.Module,
)
