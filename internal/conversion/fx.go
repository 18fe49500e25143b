package conversion

import (
	"go.uber.org/fx"

	"github.com/refgate/refgate/internal/conversion/repository"
	"github.com/refgate/refgate/internal/conversion/service"
)

var Module = fx.Module("conversion.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
