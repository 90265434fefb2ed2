package resolution

import (
	"github.com/smallbiznis/pricebook/internal/resolution/service"
	"go.uber.org/fx"
)

var Module = fx.Module("resolution.service",
	fx.Provide(service.New),
)
