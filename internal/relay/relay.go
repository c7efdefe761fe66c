// Package relay models a single reported sighting of a transient world
// entity and owns the identity, similarity, merge and liveness rules the
// tracker applies to reconcile independent reports.
package relay

import (
	"fmt"
	"time"

	"sightrelay/internal/gamedb"
	"sightrelay/internal/geo"
)

// Kind discriminates the relay variants. The numeric value doubles as the
// leading wire discriminator byte.
type Kind uint8

const (
	KindHunt   Kind = 1
	KindFate   Kind = 2
	KindManual Kind = 3
)

// KindInfo carries the static metadata registered per variant.
type KindInfo struct {
	Name    string
	WireTag byte
}

var kindTable = [...]KindInfo{
	KindHunt:   {Name: "hunt", WireTag: byte(KindHunt)},
	KindFate:   {Name: "fate", WireTag: byte(KindFate)},
	KindManual: {Name: "manual", WireTag: byte(KindManual)},
}

// Info returns the registered metadata for the kind.
func (k Kind) Info() (KindInfo, bool) {
	if int(k) >= len(kindTable) || kindTable[k].Name == "" {
		return KindInfo{}, false
	}
	return kindTable[k], true
}

func (k Kind) String() string {
	if info, ok := k.Info(); ok {
		return info.Name
	}
	return "unknown"
}

// KindFromWireTag maps a wire discriminator byte back to its kind.
func KindFromWireTag(tag byte) (Kind, bool) {
	k := Kind(tag)
	_, ok := k.Info()
	return k, ok
}

// ReleaseMode hints how eagerly a dead determination should propagate.
// Modes only escalate while the entity is alive.
type ReleaseMode uint8

const (
	ReleaseNormal ReleaseMode = iota
	ReleaseHold
	ReleaseForced
)

// Place bundles the location key with the reported raw coordinates.
type Place struct {
	Key    geo.Key
	Coords geo.Coords
}

// SimilarCoordDeltaSq is the squared game-unit distance under which two
// independently reported positions may describe one occurrence.
const SimilarCoordDeltaSq = 25.0

// Relay is one reported snapshot. Exactly one variant pointer matching Kind
// is populated. A Relay is constructed fresh per wire message and never
// mutated, except by the tracker merging into its own stored copy.
type Relay struct {
	Kind    Kind
	Place   Place
	ID      uint32
	Release ReleaseMode

	Hunt   *Hunt
	Fate   *Fate
	Manual *Manual
}

// Key renders the reconciliation key shared by every report of the same
// species/event/reporter at the same world and instance.
func (r *Relay) Key() string {
	return fmt.Sprintf("%d_%d_%d", r.Place.Key.WorldID, r.ID, r.Place.Key.InstanceID)
}

// SortKey renders a stable ordering key for listings grouped by zone.
func (r *Relay) SortKey() string {
	return fmt.Sprintf("%d_%d", r.Place.Key.ZoneID, r.ID)
}

// IsAlive reports whether the snapshot still describes a live occurrence.
func (r *Relay) IsAlive(now time.Time) bool {
	switch r.Kind {
	case KindHunt:
		return r.Hunt.CurrentHP > 0
	case KindFate:
		status := r.Fate.StatusAt(now)
		return status == FateStatusRunning || status == FateStatusPreparation
	case KindManual:
		return true
	default:
		return false
	}
}

// IsDead is the eviction predicate the tracker sweeps on.
func (r *Relay) IsDead(now time.Time) bool {
	return !r.IsAlive(now)
}

// IsTouched reports whether the occurrence has visibly progressed since it
// appeared.
func (r *Relay) IsTouched() bool {
	switch r.Kind {
	case KindHunt:
		return r.Hunt.CurrentHP != r.Hunt.MaxHP
	case KindFate:
		return r.Fate.Progress > 0
	case KindManual:
		return true
	default:
		return false
	}
}

// IsSameEntity reports strong identity: both snapshots describe the same
// physical occurrence. Identity is deliberately unbounded in time; the
// duplicate window is the tracker's concern.
func (r *Relay) IsSameEntity(other *Relay) bool {
	if r.Kind != other.Kind {
		return false
	}
	switch r.Kind {
	case KindHunt:
		return r.Hunt.ActorID == other.Hunt.ActorID
	case KindFate:
		if r.Fate.StartTime != 0 && r.Fate.StartTime == other.Fate.StartTime {
			return true
		}
		// A preparation-phase event has not been assigned a start time yet
		// and is treated as the same occurrence as whatever it is compared
		// to. Flagged for product review; preserved as shipped.
		return r.Fate.Status == FateStatusPreparation && r.Fate.StartTime == 0
	case KindManual:
		return r.ID == other.ID && r.manualSimilar(other)
	default:
		return false
	}
}

// IsSimilarData reports soft similarity: two independent reports that likely
// describe one occurrence even though no shared identity exists yet.
func (r *Relay) IsSimilarData(other *Relay, now time.Time) bool {
	if r.Kind != other.Kind {
		return false
	}
	if r.Place.Coords.DeltaSq(other.Place.Coords) >= SimilarCoordDeltaSq {
		return false
	}
	switch r.Kind {
	case KindHunt:
		return pctNear(r.Hunt.HPPercent(), other.Hunt.HPPercent(), huntHPTolerance)
	case KindFate:
		return pctNear(float64(r.Fate.Progress), float64(other.Fate.Progress), fateProgressTolerance) &&
			r.Fate.StatusAt(now) == other.Fate.StatusAt(now)
	case KindManual:
		return r.manualSimilar(other)
	default:
		return false
	}
}

// manualSimilar compares zone against the other report's world id. Zone-to-
// zone would be the obvious comparison; the shipped behavior is preserved
// because downstream merge decisions already depend on it.
func (r *Relay) manualSimilar(other *Relay) bool {
	return r.Place.Key.ZoneID == other.Place.Key.WorldID
}

// pctNear applies the shared percentage tolerance rule: 0 and 100 are exact
// boundary values that never tolerate drift, everything between compares
// within the given tolerance inclusive.
func pctNear(a, b, tolerance float64) bool {
	if a == 0 || b == 0 || a == 100 || b == 100 {
		return a == b
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// UpdateWith merges an incoming report into the stored snapshot. The caller
// has already confirmed IsSameEntity or IsSimilarData. Release mode and
// player counts only move forward while the stored entity is alive; once it
// is dead the incoming report resets them. Position and variant progress
// fields are last-writer-wins.
func (r *Relay) UpdateWith(incoming *Relay, now time.Time) {
	dead := r.IsDead(now)
	if dead || incoming.Release > r.Release {
		r.Release = incoming.Release
	}
	r.Place.Coords = incoming.Place.Coords
	switch r.Kind {
	case KindHunt:
		r.Hunt.mergeFrom(incoming.Hunt, dead)
	case KindFate:
		r.Fate.mergeFrom(incoming.Fate, dead)
	case KindManual:
		r.Manual.mergeFrom(incoming.Manual)
	}
}

// DuplicateThreshold is the window within which reports under the same key
// merge; later reports start a fresh occurrence even when identity would
// still match.
func (r *Relay) DuplicateThreshold() time.Duration {
	switch r.Kind {
	case KindHunt:
		return huntDuplicateWindow
	case KindFate:
		return fateDuplicateWindow
	default:
		return manualDuplicateWindow
	}
}

// IsValid gates a report before it may enter the tracker. Invalid reports
// are dropped silently at the boundary; the sender learns nothing about
// which rule rejected it.
func (r *Relay) IsValid(db gamedb.Database) bool {
	key := r.Place.Key
	if !key.IsPlace() || !key.IsValidInstance() {
		return false
	}
	world, ok := db.World(key.WorldID)
	if !ok || !world.Public {
		return false
	}
	zone, ok := db.Zone(key.ZoneID)
	if !ok {
		return false
	}
	switch r.Kind {
	case KindHunt:
		return zone.Field && db.SpeciesInZone(r.ID, key.ZoneID)
	case KindFate:
		return zone.Field && db.KnownEvent(r.ID)
	case KindManual:
		return r.Manual.Reporter != ""
	default:
		return false
	}
}

// Clone returns a deep copy the tracker can own and mutate.
func (r *Relay) Clone() *Relay {
	out := *r
	switch r.Kind {
	case KindHunt:
		h := *r.Hunt
		out.Hunt = &h
	case KindFate:
		f := *r.Fate
		out.Fate = &f
	case KindManual:
		m := *r.Manual
		out.Manual = &m
	}
	return &out
}

// Equal compares every observable field of two snapshots. The tracker uses
// it to decide whether a merge changed anything worth fanning out.
func Equal(a, b *Relay) bool {
	if a.Kind != b.Kind || a.Place != b.Place || a.ID != b.ID || a.Release != b.Release {
		return false
	}
	switch a.Kind {
	case KindHunt:
		return *a.Hunt == *b.Hunt
	case KindFate:
		return *a.Fate == *b.Fate
	case KindManual:
		return *a.Manual == *b.Manual
	default:
		return true
	}
}
