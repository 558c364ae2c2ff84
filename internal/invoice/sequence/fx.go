package sequence

import (
	"context"
	"errors"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/siino/internal/cache"
	"github.com/smallbiznis/siino/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    config.Config
	Holder *config.InvoiceConfigHolder
	Cache  *cache.Cache
	Log    *zap.Logger
}

// NewNumberer picks the numbering mode from config.
func NewNumberer(p Params) (Numberer, error) {
	width := func() int { return p.Holder.Get().NumberWidth }
	if p.Cfg.Numbering != config.NumberingRedis {
		return NewCacheNumberer(p.Cache, width), nil
	}

	addr := strings.TrimSpace(p.Cfg.Redis.Addr)
	if addr == "" {
		return nil, errors.New("invoice numbering redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(p.Cfg.Redis.Password),
		DB:       p.Cfg.Redis.DB,
	})
	p.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	p.Log.Named("invoice.sequence").Info("using redis invoice numbering", zap.String("addr", addr))
	return NewRedisNumberer(client, p.Cache, width), nil
}

var Module = fx.Module("invoice.sequence",
	fx.Provide(NewNumberer),
)
