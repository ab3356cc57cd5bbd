package app_test

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"hotel_occupancy/internal/domain"
)

// ---- fakes ----

// fakeCache round-trips through JSON like the redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	gets  int
	hits  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(v, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

func (c *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	n, _ := strconv.ParseInt(string(c.store[key]), 10, 64)
	n++
	c.store[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (c *fakeCache) counter(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(string(c.store[key]), 10, 64)
	return n
}

// fakeBackend serves canned rows per resource and honours limit/offset.
type fakeBackend struct {
	mu      sync.Mutex
	rows    map[string][]map[string]any
	queries map[string][]domain.RowQuery
}

func (f *fakeBackend) ListRows(ctx context.Context, resource string, q domain.RowQuery) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queries == nil {
		f.queries = map[string][]domain.RowQuery{}
	}
	f.queries[resource] = append(f.queries[resource], q)
	all := f.rows[resource]
	if q.Offset >= len(all) {
		return nil, nil
	}
	end := len(all)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return all[q.Offset:end], nil
}

// ---- helpers ----

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func stay(from, to string) domain.DateRange {
	return domain.DateRange{Start: day(from), End: day(to)}
}

func testInventory() domain.Inventory {
	return domain.Inventory{
		"standard": {Rooms: 10, BaseRate: decimal.NewFromInt(100)},
		"suite":    {Rooms: 1, BaseRate: decimal.NewFromInt(400)},
	}
}
