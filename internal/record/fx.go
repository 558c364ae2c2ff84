package record

import "go.uber.org/fx"

var Module = fx.Module("record",
	fx.Provide(New),
)
