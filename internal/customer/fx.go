package customer

import (
	"github.com/safeguardhq/safeguard/internal/customer/repository"
	"github.com/safeguardhq/safeguard/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
