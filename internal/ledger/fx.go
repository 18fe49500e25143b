package ledger

import (
	"go.uber.org/fx"

	"github.com/refgate/refgate/internal/ledger/service"
)

var Module = fx.Module("ledger.service",
	fx.Provide(service.NewService),
	fx.Provide(NewSweeper),
	fx.Invoke(startSweeper),
)
