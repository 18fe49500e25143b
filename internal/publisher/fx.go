package publisher

import (
	"go.uber.org/fx"

	"github.com/refgate/refgate/internal/publisher/repository"
	"github.com/refgate/refgate/internal/publisher/service"
)

var Module = fx.Module("publisher.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
