package pricelist

import (
	"github.com/smallbiznis/pricebook/internal/pricelist/repository"
	"github.com/smallbiznis/pricebook/internal/pricelist/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricelist.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
