// Package cache maintains the named view cache read by list endpoints and
// the invalidation protocol that keeps it consistent with the store after
// mutations.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Invalidator resolves mutation kinds into concrete view keys and drops them
// from the store as one batch. Invalidation runs synchronously in the
// mutation success path so the next read observes fresh data.
type Invalidator struct {
	store Store
	log   *logrus.Logger
	ttl   time.Duration
}

func NewInvalidator(store Store, log *logrus.Logger, ttl time.Duration) *Invalidator {
	return &Invalidator{store: store, log: log, ttl: ttl}
}

// Invalidate drops every view affected by the mutation. Idempotent: deleting
// already-absent keys is a no-op.
func (inv *Invalidator) Invalidate(ctx context.Context, mutation Mutation, ref EntityRef) error {
	keys := KeysFor(mutation, ref)
	if len(keys) == 0 {
		return nil
	}

	if err := inv.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to invalidate %d cache keys for %s: %w", len(keys), mutation, err)
	}

	inv.log.WithFields(logrus.Fields{
		"mutation": mutation,
		"keys":     len(keys),
	}).Debug("cache invalidated")

	return nil
}

// GetView unmarshals a cached view into out. found=false marks the view
// stale; the caller refetches from the repository and repopulates with
// PutView. Reads never reach past the cache themselves.
func (inv *Invalidator) GetView(ctx context.Context, key string, out interface{}) (bool, error) {
	value, found, err := inv.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read cached view %s: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(value, out); err != nil {
		// A corrupt entry is treated as stale, not as a read failure.
		inv.log.WithField("key", key).WithError(err).Warn("dropping undecodable cache entry")
		return false, nil
	}
	return true, nil
}

// PutView caches a freshly fetched view.
func (inv *Invalidator) PutView(ctx context.Context, key string, view interface{}) error {
	value, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to encode view %s: %w", key, err)
	}
	if err := inv.store.Set(ctx, key, value, inv.ttl); err != nil {
		return fmt.Errorf("failed to cache view %s: %w", key, err)
	}
	return nil
}
