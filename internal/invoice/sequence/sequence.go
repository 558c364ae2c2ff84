// Package sequence issues invoice numbers.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/invoice/compute"
)

var ErrMissingTeam = errors.New("missing_team")

// Numberer returns the next invoice number of a team for a calendar year.
type Numberer interface {
	Next(ctx context.Context, teamID string, year int) (string, error)
}

// InvoiceSource lists cached invoices. *cache.Cache satisfies it.
type InvoiceSource interface {
	Invoices() []entity.Invoice
}

// CacheNumberer derives the next number from cached invoices. Two sessions
// saving at the same time can compute the same number; the store's unique
// index rejects the second insert.
type CacheNumberer struct {
	source InvoiceSource
	width  func() int
}

func NewCacheNumberer(source InvoiceSource, width func() int) *CacheNumberer {
	return &CacheNumberer{source: source, width: width}
}

func (n *CacheNumberer) Next(_ context.Context, teamID string, year int) (string, error) {
	if strings.TrimSpace(teamID) == "" {
		return "", ErrMissingTeam
	}
	numbers := compute.NumbersInYear(teamInvoices(n.source.Invoices(), teamID), year)
	return compute.NextInvoiceNumberWidth(numbers, widthOf(n.width)), nil
}

const keyInvoiceSequence = "siino:invoice:seq:%s:%d"

// next bumps the counter, never letting it fall below the floor seeded from
// already-issued numbers.
const nextSequenceScript = `
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local floor = tonumber(ARGV[1])
if current < floor then
  current = floor
end
current = current + 1
redis.call("SET", KEYS[1], current, "EX", ARGV[2])
return current
`

// sequenceTTL keeps a year's counter around past the year end.
const sequenceTTL = 400 * 24 * time.Hour

// RedisNumberer hands out numbers from an atomic per team and year counter.
type RedisNumberer struct {
	client *redis.Client
	script *redis.Script
	source InvoiceSource
	width  func() int
}

func NewRedisNumberer(client *redis.Client, source InvoiceSource, width func() int) *RedisNumberer {
	if client == nil {
		return nil
	}
	return &RedisNumberer{
		client: client,
		script: redis.NewScript(nextSequenceScript),
		source: source,
		width:  width,
	}
}

func (n *RedisNumberer) Next(ctx context.Context, teamID string, year int) (string, error) {
	if n == nil || n.client == nil {
		return "", errors.New("sequence client not configured")
	}
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return "", ErrMissingTeam
	}

	var floor int64
	if n.source != nil {
		floor = compute.MaxSequence(compute.NumbersInYear(teamInvoices(n.source.Invoices(), teamID), year))
	}

	key := fmt.Sprintf(keyInvoiceSequence, teamID, year)
	seq, err := n.script.Run(ctx, n.client, []string{key}, floor, int64(sequenceTTL.Seconds())).Int64()
	if err != nil {
		return "", fmt.Errorf("next invoice sequence: %w", err)
	}
	return compute.FormatNumber(seq, widthOf(n.width))
}

func teamInvoices(invoices []entity.Invoice, teamID string) []entity.Invoice {
	out := invoices[:0:0]
	for _, inv := range invoices {
		if inv.TeamID == teamID {
			out = append(out, inv)
		}
	}
	return out
}

func widthOf(width func() int) int {
	if width == nil {
		return compute.DefaultNumberWidth
	}
	if w := width(); w > 0 {
		return w
	}
	return compute.DefaultNumberWidth
}
