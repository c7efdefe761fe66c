// Package gamedb defines the lookup-table contract the relay core needs from
// the embedded game database. The real loader lives outside this module; it
// hands a fully materialized Database to the index and tracking layers.
package gamedb

import "sightrelay/internal/geo"

// World describes a game world shard and its place in the datacenter
// hierarchy.
type World struct {
	ID           uint32
	Name         string
	DatacenterID uint32
	RegionID     uint32
	AudienceID   uint32
	// Public marks worlds reachable by ordinary players. Relays from
	// non-public worlds (test shards, decommissioned ids) are dropped.
	Public bool
}

// Zone describes a zone row: whether it is an open field area and the map
// transform used for coordinate display.
type Zone struct {
	ID uint32
	// Field marks non-instanced open areas, the only zones hunt and fate
	// relays may legitimately originate from.
	Field     bool
	Transform geo.MapTransform
}

// Database is the resolved lookup table supplied by the external loader. All
// methods are pure reads over immutable data and safe for concurrent use.
type Database interface {
	// World resolves a world id. The second return is false for unknown ids.
	World(worldID uint32) (World, bool)
	// Zone resolves a zone id.
	Zone(zoneID uint32) (Zone, bool)
	// SpeciesInZone reports whether the species can spawn in the zone.
	SpeciesInZone(speciesID, zoneID uint32) bool
	// KnownEvent reports whether the world-event id exists in game data.
	KnownEvent(eventID uint32) bool
}

// ResolvedPlace is a geo key joined with the world's hierarchy ids. It is
// recomputed per index operation rather than stored on entities, so a
// hot-swapped database never leaves stale hierarchy ids behind.
type ResolvedPlace struct {
	Key          geo.Key
	DatacenterID uint32
	RegionID     uint32
	AudienceID   uint32
}

// Resolve joins a place key with the world hierarchy. It returns false when
// the world id is unknown; callers treat that as "invalid place" rather than
// an error (the id may simply postdate the loaded database).
func Resolve(db Database, key geo.Key) (ResolvedPlace, bool) {
	world, ok := db.World(key.WorldID)
	if !ok {
		return ResolvedPlace{}, false
	}
	return ResolvedPlace{
		Key:          key,
		DatacenterID: world.DatacenterID,
		RegionID:     world.RegionID,
		AudienceID:   world.AudienceID,
	}, true
}
