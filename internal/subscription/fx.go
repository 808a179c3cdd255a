package subscription

import (
	"go.uber.org/fx"

	"github.com/fakturo/fakturo/internal/subscription/repository"
	"github.com/fakturo/fakturo/internal/subscription/service"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
