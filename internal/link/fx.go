package link

import (
	"go.uber.org/fx"

	"github.com/refgate/refgate/internal/link/repository"
	"github.com/refgate/refgate/internal/link/service"
)

var Module = fx.Module("link.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
