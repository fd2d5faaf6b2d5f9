package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobCache keeps finished import responses by job id.
type JobCache struct {
	kv  KV
	ttl time.Duration
}

func NewJobCache(kv KV, ttl time.Duration) *JobCache {
	return &JobCache{kv: kv, ttl: ttl}
}

func jobKey(jobID string) string {
	return "edd-import:job:" + jobID
}

// Put stores v as JSON under the job id.
func (c *JobCache) Put(ctx context.Context, jobID string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode job snapshot: %w", err)
	}
	return c.kv.Set(ctx, jobKey(jobID), string(b), c.ttl)
}

// Get decodes the snapshot of jobID into v; ErrMiss when absent or expired.
func (c *JobCache) Get(ctx context.Context, jobID string, v any) error {
	raw, err := c.kv.Get(ctx, jobKey(jobID))
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode job snapshot: %w", err)
	}
	return nil
}

// ImportLock serializes runs for the same tenant and property.
type ImportLock struct {
	kv  KV
	ttl time.Duration
}

func NewImportLock(kv KV, ttl time.Duration) *ImportLock {
	return &ImportLock{kv: kv, ttl: ttl}
}

func lockKey(tenantID, coproID string) string {
	return fmt.Sprintf("edd-import:lock:%s:%s", tenantID, coproID)
}

// Acquire takes the lock. ok=false means another run holds it. The returned
// release func only frees the lock while this holder still owns it.
func (l *ImportLock) Acquire(ctx context.Context, tenantID, coproID string) (release func(context.Context) error, ok bool, err error) {
	key := lockKey(tenantID, coproID)
	token := uuid.NewString()

	ok, err = l.kv.SetNX(ctx, key, token, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire import lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	release = func(ctx context.Context) error {
		if _, err := l.kv.DelIfEqual(ctx, key, token); err != nil {
			return fmt.Errorf("failed to release import lock: %w", err)
		}
		return nil
	}
	return release, true, nil
}
