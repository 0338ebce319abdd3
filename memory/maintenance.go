package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// Stats returns the live record count of every collection plus "total".
func (s *Store) Stats() map[string]int {
	stats := make(map[string]int, len(kinds)+1)
	total := 0
	for _, k := range kinds {
		n := s.count(k)
		stats[string(k)] = n
		total += n
	}
	stats["total"] = total
	return stats
}

// Count returns the number of records across all collections.
func (s *Store) Count() int {
	total := 0
	for _, k := range kinds {
		total += s.count(k)
	}
	return total
}

func (s *Store) count(k Kind) int {
	sl := s.slots[k]
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.index.Count()
}

// ClearCollection drops every record of kind k by deleting and recreating
// its collection. It is a no-op on a disabled store.
func (s *Store) ClearCollection(ctx context.Context, k Kind) error {
	if !k.Valid() {
		return goerr.Wrap(ErrUnknownKind, "clear collection", goerr.V("kind", k))
	}
	if !s.enabled {
		return nil
	}

	sl := s.slots[k]
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if err := s.provider.Delete(sl.name); err != nil {
		return goerr.Wrap(err, "delete collection", goerr.V("collection", sl.name))
	}
	idx, err := s.provider.Create(sl.name)
	if err != nil {
		// The old index is gone; keep the slot usable as an empty one.
		sl.index = nopIndex{}
		return goerr.Wrap(fmt.Errorf("%w: %w", ErrIndexUnavailable, err),
			"recreate collection", goerr.V("collection", sl.name))
	}
	sl.index = idx
	s.metrics.clears.Add(1)
	s.log.Info("memory collection cleared", "collection", sl.name)
	return nil
}

// ClearAll clears every collection. Collections that fail to clear are
// reported together after the others have been cleared.
func (s *Store) ClearAll(ctx context.Context) error {
	if !s.enabled {
		return nil
	}
	var errs []error
	for _, k := range kinds {
		if err := s.ClearCollection(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	s.log.Warn("all vector memories cleared")
	return errors.Join(errs...)
}
