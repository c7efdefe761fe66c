// Package track stores the reconciled view of every reported entity, keyed
// by relay key, and drives fan-out when an incoming report changes it.
package track

import (
	"log"
	"sort"
	"sync"
	"time"

	"sightrelay/internal/gamedb"
	"sightrelay/internal/index"
	"sightrelay/internal/relay"
)

// Reconciler is the storage contract the core requires. Tracker is the
// in-process implementation; alternative backends must keep the same
// upsert/eviction semantics.
type Reconciler interface {
	Lookup(relayKey string) (*relay.Relay, bool)
	Upsert(incoming *relay.Relay) (*relay.Relay, bool)
	Sweep(window time.Duration) int
}

// Listener receives every reconciled snapshot whose observable state
// changed, together with the full jurisdiction key set it is filed under.
type Listener func(rel *relay.Relay, keys []string)

// Config carries tracker construction options.
type Config struct {
	Logger *log.Logger
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

type entry struct {
	rel       *relay.Relay
	keys      []string
	firstSeen time.Time
	lastSeen  time.Time
	deadSince time.Time
}

// Tracker reconciles incoming reports against stored state. A single mutex
// serializes same-key upserts; every predicate it calls is pure, so the lock
// only guards the map and the stored snapshots.
type Tracker struct {
	mu        sync.Mutex
	entries   map[string]*entry
	listeners []Listener

	db     gamedb.Database
	cache  *index.KeyCache
	logger *log.Logger
	clock  func() time.Time
}

// New builds a tracker over the given database and key cache.
func New(db gamedb.Database, cache *index.KeyCache, cfg Config) *Tracker {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	if cache == nil {
		cache = index.NewKeyCache(nil)
	}
	return &Tracker{
		entries: make(map[string]*entry),
		db:      db,
		cache:   cache,
		logger:  logger,
		clock:   clock,
	}
}

// AddListener registers a fan-out listener. Listeners run outside the
// tracker lock, on the goroutine that performed the upsert.
func (t *Tracker) AddListener(fn Listener) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

// Lookup returns a copy of the stored snapshot under the relay key.
func (t *Tracker) Lookup(relayKey string) (*relay.Relay, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[relayKey]
	if !ok {
		return nil, false
	}
	return e.rel.Clone(), true
}

// Upsert reconciles an incoming report. Invalid reports are dropped silently
// with no feedback to the sender. The returned snapshot is a copy of the
// stored state after reconciliation; changed reports whether observable
// state moved, which drives fan-out.
func (t *Tracker) Upsert(incoming *relay.Relay) (*relay.Relay, bool) {
	if !incoming.IsValid(t.db) {
		return nil, false
	}
	now := t.clock()
	key := incoming.Key()

	t.mu.Lock()
	e, exists := t.entries[key]
	var changed bool
	switch {
	case !exists:
		e = &entry{rel: incoming.Clone(), firstSeen: now}
		t.entries[key] = e
		changed = true
	case now.Sub(e.lastSeen) > e.rel.DuplicateThreshold():
		// Past the duplicate window the occurrence is treated as fresh
		// (respawn, rerun) even when identity would still match.
		changed = !relay.Equal(e.rel, incoming)
		e.rel = incoming.Clone()
		e.firstSeen = now
		e.deadSince = time.Time{}
	case e.rel.IsSameEntity(incoming) || e.rel.IsSimilarData(incoming, now):
		before := e.rel.Clone()
		e.rel.UpdateWith(incoming, now)
		changed = !relay.Equal(before, e.rel)
	default:
		// Identity failed inside the window: a distinct occurrence under
		// the same key supersedes the stored one.
		changed = !relay.Equal(e.rel, incoming)
		e.rel = incoming.Clone()
		e.firstSeen = now
		e.deadSince = time.Time{}
	}
	e.lastSeen = now
	if e.rel.IsDead(now) {
		if e.deadSince.IsZero() {
			e.deadSince = now
		}
	} else {
		e.deadSince = time.Time{}
	}
	if changed {
		e.keys = t.placeKeysLocked(e.rel)
	}
	stored := e.rel.Clone()
	keys := e.keys
	listeners := t.listeners
	t.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(stored, keys)
		}
	}
	return stored, changed
}

func (t *Tracker) placeKeysLocked(rel *relay.Relay) []string {
	resolved, ok := gamedb.Resolve(t.db, rel.Place.Key)
	if !ok {
		// Validity gating makes this unreachable unless the database was
		// hot-swapped mid-flight; degrade to no fan-out keys.
		return nil
	}
	return t.cache.PlaceKeys(resolved)
}

// Sweep evicts entries whose dead state has held longer than the policy
// window and returns how many were removed.
func (t *Tracker) Sweep(window time.Duration) int {
	now := t.clock()
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for key, e := range t.entries {
		if e.rel.IsDead(now) {
			if e.deadSince.IsZero() {
				e.deadSince = now
				continue
			}
			if now.Sub(e.deadSince) > window {
				delete(t.entries, key)
				removed++
			}
		} else {
			e.deadSince = time.Time{}
		}
	}
	if removed > 0 {
		t.logger.Printf("evicted %d dead relays", removed)
	}
	return removed
}

// Run sweeps on a fixed cadence until stop closes.
func (t *Tracker) Run(stop <-chan struct{}, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.Sweep(window)
		}
	}
}

// Snapshot returns copies of every stored relay filed under the given
// jurisdiction key, ordered by sort key.
func (t *Tracker) Snapshot(jurisdictionKey string) []*relay.Relay {
	t.mu.Lock()
	out := make([]*relay.Relay, 0)
	for _, e := range t.entries {
		for _, key := range e.keys {
			if key == jurisdictionKey {
				out = append(out, e.rel.Clone())
				break
			}
		}
	}
	t.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].SortKey() < out[j].SortKey() })
	return out
}

// Stats counts stored relays per jurisdiction key. The keys appear verbatim
// in heartbeat and statistics payloads.
func (t *Tracker) Stats() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := make(map[string]int)
	for _, e := range t.entries {
		for _, key := range e.keys {
			stats[key]++
		}
	}
	return stats
}

// Len reports how many relays are currently stored.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
