package click

import (
	"go.uber.org/fx"

	"github.com/refgate/refgate/internal/click/repository"
	"github.com/refgate/refgate/internal/click/service"
)

var Module = fx.Module("click.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewValidator),
	fx.Provide(service.NewTracker),
)
