// Package budget persists embedding token counters as expiring Redis integers.
// Keys look like courserec:budget:<model>:daily:2026-10-16 or
// courserec:budget:<model>:monthly:2026-10; each expires a grace period after
// the day or month it counts has ended.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/courserec/internal/db"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"

	// fallbackTTL covers keys whose period cannot be parsed.
	fallbackTTL = 62 * 24 * time.Hour
)

type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store keeps token counters for the embedding budget tracker.
type Store struct {
	store store
	grace time.Duration
	now   func() time.Time
}

// New creates a budget store. Counters outlive their period by grace
// so operators can still read yesterday's spend.
func New(s store, grace time.Duration) *Store {
	return &Store{store: s, grace: grace, now: time.Now}
}

// IncrBy adds val to the counter and arms its expiry on first write.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.store.IncrBy(ctx, key, val); err != nil {
		return fmt.Errorf("budget INCRBY %s: %w", key, err)
	}

	// NX keeps the first expiry, so repeated increments never extend a period.
	if err := s.store.Expire(ctx, key, s.ttlFor(key), true); err != nil {
		return fmt.Errorf("budget EXPIRE %s: %w", key, err)
	}
	return nil
}

// Get returns the counter value, or 0 when the period has no spend yet.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("budget GET %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget GET %s: corrupt counter %q: %w", key, data, err)
	}
	return val, nil
}

// ttlFor returns the time left until the key's period ends, plus grace.
func (s *Store) ttlFor(key string) time.Duration {
	end, ok := periodEnd(key)
	if !ok {
		return fallbackTTL
	}
	ttl := end.Sub(s.now().UTC()) + s.grace
	if ttl < time.Second {
		// Late writes for a closed period still need a positive TTL.
		return time.Second
	}
	return ttl
}

// periodEnd parses the trailing period segment of a budget key.
func periodEnd(key string) (time.Time, bool) {
	if rest, ok := cutAfter(key, ":daily:"); ok {
		day, err := time.Parse(dayLayout, rest)
		if err != nil {
			return time.Time{}, false
		}
		return day.AddDate(0, 0, 1), true
	}
	if rest, ok := cutAfter(key, ":monthly:"); ok {
		month, err := time.Parse(monthLayout, rest)
		if err != nil {
			return time.Time{}, false
		}
		return month.AddDate(0, 1, 0), true
	}
	return time.Time{}, false
}

func cutAfter(s, sep string) (string, bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return "", false
	}
	return s[i+len(sep):], true
}
