package invoice

import (
	"github.com/smallbiznis/siino/internal/invoice/sequence"
	"github.com/smallbiznis/siino/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	sequence.Module,
	fx.Provide(service.NewService),
)
