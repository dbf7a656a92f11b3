package product

import (
	"github.com/safeguardhq/safeguard/internal/product/repository"
	"github.com/safeguardhq/safeguard/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
