package assignment

import (
	"github.com/smallbiznis/pricebook/internal/assignment/repository"
	"github.com/smallbiznis/pricebook/internal/assignment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("assignment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
