package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	coresequence "admissions/internal/core/sequence"
)

const keyPrefix = "seq:"

// incrementScript seeds an absent counter with its start value and applies
// the increment in one atomic server-side step.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	redis.call('SET', KEYS[1], ARGV[2])
end
return redis.call('INCRBY', KEYS[1], ARGV[1])
`)

// SequenceStore keeps counters as Redis integers under "seq:<name>".
// Durability follows the server's persistence settings (AOF recommended).
type SequenceStore struct {
	client redis.UniversalClient
}

var _ coresequence.Store = (*SequenceStore)(nil)

// NewSequenceStore creates a new Redis counter store.
func NewSequenceStore(client redis.UniversalClient) *SequenceStore {
	return &SequenceStore{client: client}
}

// Increment implements core/sequence.Store.
func (s *SequenceStore) Increment(ctx context.Context, name string, delta, start int64) (int64, error) {
	v, err := incrementScript.Run(ctx, s.client, []string{keyPrefix + name}, delta, start).Int64()
	if err != nil {
		return 0, fmt.Errorf("increment %s: %w", name, err)
	}
	return v, nil
}

// Current returns the last issued value, or ok=false if the counter does not exist yet.
func (s *SequenceStore) Current(ctx context.Context, name string) (value int64, ok bool, err error) {
	value, err = s.client.Get(ctx, keyPrefix+name).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read %s: %w", name, err)
	}
	return value, true, nil
}
