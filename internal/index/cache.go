package index

import (
	"sync"

	"sightrelay/internal/gamedb"
)

// Interner deduplicates equal key strings into one shared instance. It is a
// memory optimization only; callers must never rely on pointer identity of
// interned strings.
type Interner struct {
	mu      sync.Mutex
	strings map[string]string
}

// NewInterner builds an empty interner.
func NewInterner() *Interner {
	return &Interner{strings: make(map[string]string)}
}

// Intern returns the shared instance equal to s, registering s if absent.
func (i *Interner) Intern(s string) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	if shared, ok := i.strings[s]; ok {
		return shared
	}
	i.strings[s] = s
	return s
}

// Len reports how many distinct strings are interned.
func (i *Interner) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.strings)
}

// KeyCache memoizes the full fan-out key set per place. The set is a pure
// function of the resolved place, so concurrent duplicate computation is
// harmless; first insert wins and later computations produce equal results.
type KeyCache struct {
	interner *Interner
	mu       sync.RWMutex
	keys     map[string][]string
}

// NewKeyCache builds a cache backed by the given interner. A nil interner
// gets a private one.
func NewKeyCache(interner *Interner) *KeyCache {
	if interner == nil {
		interner = NewInterner()
	}
	return &KeyCache{interner: interner, keys: make(map[string][]string)}
}

// PlaceKeys returns the deduplicated union of index keys across all four
// scopes of the resolved place. Callers must not mutate the returned slice.
func (c *KeyCache) PlaceKeys(p gamedb.ResolvedPlace) []string {
	placeKey := c.interner.Intern(p.Key.PlaceKey())

	c.mu.RLock()
	cached, ok := c.keys[placeKey]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	keys := computePlaceKeys(p, c.interner)

	c.mu.Lock()
	if existing, ok := c.keys[placeKey]; ok {
		keys = existing
	} else {
		c.keys[placeKey] = keys
	}
	c.mu.Unlock()
	return keys
}

func computePlaceKeys(p gamedb.ResolvedPlace, interner *Interner) []string {
	seen := make(map[string]struct{}, 20)
	keys := make([]string, 0, 20)
	for _, info := range ScopeInfos(p) {
		for _, key := range GetIndexKeys(info) {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, interner.Intern(key))
		}
	}
	return keys
}
