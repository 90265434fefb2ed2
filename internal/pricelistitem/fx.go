package pricelistitem

import (
	"github.com/smallbiznis/pricebook/internal/pricelistitem/repository"
	"github.com/smallbiznis/pricebook/internal/pricelistitem/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricelistitem.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
