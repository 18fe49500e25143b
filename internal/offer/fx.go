package offer

import (
	"go.uber.org/fx"

	"github.com/refgate/refgate/internal/offer/repository"
	"github.com/refgate/refgate/internal/offer/service"
)

var Module = fx.Module("offer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
