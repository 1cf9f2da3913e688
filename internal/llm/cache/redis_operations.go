package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-groundqa/internal/domain"
	"github.com/ahrav/go-groundqa/internal/llm/transport"
)

// atomicCacheHitOrLease checks for a cached value and acquires a lease on a
// miss, in one round trip.
// Status codes: 1 for a cache hit, 2 for a lease acquired, 0 if the lease is
// already held elsewhere.
//
// KEYS[1] = cacheKey
// KEYS[2] = leaseKey
// ARGV[1] = lease TTL in seconds.
const atomicCacheHitOrLease = `
	local cached = redis.call('GET', KEYS[1])
	if cached then
		if string.len(cached) >= 2 and string.sub(cached, 1, 1) == '{' then
			return {1, cached}
		end
		redis.call('DEL', KEYS[1])
	end

	local leased = redis.call('SET', KEYS[2], '1', 'NX', 'EX', ARGV[1])
	if leased then return {2, false} end
	return {0, false}
`

// cacheStatus represents the outcome of an atomic cache-and-lease operation.
type cacheStatus int

const (
	leaseFailed   cacheStatus = 0
	cacheHit      cacheStatus = 1
	leaseAcquired cacheStatus = 2
)

// cacheEntry is the compact form stored in Redis.
type cacheEntry struct {
	Provider       string                    `json:"provider"`
	Model          string                    `json:"model"`
	Content        string                    `json:"content"`
	FinishReason   domain.FinishReason       `json:"finish_reason"`
	RequestIDs     []string                  `json:"request_ids,omitempty"`
	Usage          transport.NormalizedUsage `json:"usage"`
	StoredAtUnixMs int64                     `json:"stored_at_ms"`
}

// atomicCheckAndLease runs the check-and-lease script and decodes its result.
// It returns the status, the cached response on a hit, and whether this
// caller now holds the lease.
func (c *cacheMiddleware) atomicCheckAndLease(
	ctx context.Context, cacheKey, leaseKey string, leaseTTL time.Duration,
) (cacheStatus, *transport.Response, bool, error) {
	result, err := c.client.Eval(ctx, atomicCacheHitOrLease,
		[]string{cacheKey, leaseKey},
		int(leaseTTL.Seconds())).Result()
	if err != nil {
		return leaseFailed, nil, false, fmt.Errorf("atomic check-and-lease failed: %w", err)
	}

	resultSlice, ok := result.([]any)
	if !ok || len(resultSlice) == 0 {
		return leaseFailed, nil, false, fmt.Errorf("unexpected script result format")
	}

	statusCode, ok := resultSlice[0].(int64)
	if !ok {
		return leaseFailed, nil, false, fmt.Errorf("invalid status code in script result")
	}

	switch cacheStatus(statusCode) {
	case cacheHit:
		if len(resultSlice) < 2 {
			return leaseFailed, nil, false, fmt.Errorf("cache hit without payload")
		}
		var raw []byte
		switch v := resultSlice[1].(type) {
		case string:
			raw = []byte(v)
		case []byte:
			raw = v
		default:
			return leaseFailed, nil, false, fmt.Errorf("invalid cached data type %T", v)
		}

		var entry cacheEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return leaseFailed, nil, false, fmt.Errorf("cache entry unmarshal failed: %w", err)
		}
		return cacheHit, entryToResponse(&entry), false, nil

	case leaseAcquired:
		return leaseAcquired, nil, true, nil

	default:
		return leaseFailed, nil, false, nil
	}
}

// get retrieves a cached response. Corrupted entries are removed and
// reported as redis.Nil.
func (c *cacheMiddleware) get(ctx context.Context, key string) (*transport.Response, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Error("cache unmarshal error", "error", err, "key", key)
		_ = c.client.Del(ctx, key)
		return nil, redis.Nil
	}

	return entryToResponse(&entry), nil
}

// set stores a response under key with the configured TTL.
func (c *cacheMiddleware) set(
	ctx context.Context,
	key string,
	resp *transport.Response,
	req *transport.Request,
) error {
	if resp == nil {
		return nil
	}

	entry := cacheEntry{
		Provider:       req.Provider,
		Model:          req.Model,
		Content:        resp.Content,
		FinishReason:   resp.FinishReason,
		RequestIDs:     resp.ProviderRequestIDs,
		Usage:          resp.Usage,
		StoredAtUnixMs: time.Now().UnixMilli(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// entryToResponse reconstructs a transport.Response from a cache entry.
func entryToResponse(entry *cacheEntry) *transport.Response {
	return &transport.Response{
		Content:            entry.Content,
		FinishReason:       entry.FinishReason,
		ProviderRequestIDs: entry.RequestIDs,
		Usage:              entry.Usage,
	}
}
