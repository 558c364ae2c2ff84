package guard

import (
	"github.com/smallbiznis/siino/internal/cache"
	"go.uber.org/fx"
)

var Module = fx.Module("guard",
	fx.Provide(func(c *cache.Cache) *Guard { return New(c) }),
)
