package attribution

import "go.uber.org/fx"

var Module = fx.Module("attribution.engine",
	fx.Provide(NewEngine),
)
