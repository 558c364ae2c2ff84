package sequence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource []entity.Invoice

func (s stubSource) Invoices() []entity.Invoice { return s }

func issued(team, number string, year int) entity.Invoice {
	return entity.Invoice{TeamID: team, InvoiceNumber: number, IssueDate: time.Date(year, 3, 1, 0, 0, 0, 0, time.UTC)}
}

func setupRedis(t *testing.T, source InvoiceSource) (*miniredis.Miniredis, *RedisNumberer) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisNumberer(client, source, nil)
}

func TestCacheNumbererScansYearAndTeam(t *testing.T) {
	src := stubSource{
		issued("team-a", "0001", 2025),
		issued("team-a", "0003", 2025),
		issued("team-a", "0009", 2024),
		issued("team-b", "0042", 2025),
	}
	n := NewCacheNumberer(src, func() int { return 4 })
	ctx := context.Background()

	got, err := n.Next(ctx, "team-a", 2025)
	require.NoError(t, err)
	assert.Equal(t, "0004", got)

	got, err = n.Next(ctx, "team-a", 2026)
	require.NoError(t, err)
	assert.Equal(t, "0001", got)

	_, err = n.Next(ctx, " ", 2025)
	assert.ErrorIs(t, err, ErrMissingTeam)
}

func TestRedisNumbererSeedsFromCache(t *testing.T) {
	src := stubSource{issued("team-a", "0001", 2025), issued("team-a", "0002", 2025)}
	mr, n := setupRedis(t, src)
	ctx := context.Background()

	got, err := n.Next(ctx, "team-a", 2025)
	require.NoError(t, err)
	assert.Equal(t, "0003", got)

	got, err = n.Next(ctx, "team-a", 2025)
	require.NoError(t, err)
	assert.Equal(t, "0004", got)

	got, err = n.Next(ctx, "team-a", 2026)
	require.NoError(t, err)
	assert.Equal(t, "0001", got)

	assert.True(t, mr.Exists("siino:invoice:seq:team-a:2025"))
	assert.Positive(t, mr.TTL("siino:invoice:seq:team-a:2025"))
}

func TestRedisNumbererNeverCollides(t *testing.T) {
	_, n := setupRedis(t, stubSource{})
	ctx := context.Background()

	const sessions = 20
	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := n.Next(ctx, "team-a", 2025)
			assert.NoError(t, err)
			mu.Lock()
			seen[got] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, sessions)
	assert.True(t, seen["0001"])
	assert.True(t, seen["0020"])
}

func TestRedisNumbererNilClient(t *testing.T) {
	n := NewRedisNumberer(nil, nil, nil)
	_, err := n.Next(context.Background(), "team-a", 2025)
	assert.Error(t, err)
}
