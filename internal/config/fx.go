package config

import "go.uber.org/fx"

// Module expects Config to be supplied by the caller, which loads it before
// the graph is built so the store adapter can be chosen.
var Module = fx.Module("config",
	fx.Provide(NewInvoiceConfigHolder),
)
