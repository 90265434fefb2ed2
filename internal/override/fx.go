package override

import (
	"github.com/smallbiznis/pricebook/internal/override/repository"
	"github.com/smallbiznis/pricebook/internal/override/service"
	"go.uber.org/fx"
)

var Module = fx.Module("override.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
