package geo

import "fmt"

// MaxInstance is the highest instanced-area copy number the game exposes.
const MaxInstance = 9

// Key identifies a place in the game world: a world shard, a zone within it,
// and the instanced copy of that zone. Keys are immutable values; a changed
// place is a new Key.
type Key struct {
	WorldID    uint32 `json:"worldId"`
	ZoneID     uint32 `json:"zoneId"`
	InstanceID uint32 `json:"instanceId"`
}

// IsValidInstance reports whether the instance number lies in the closed
// range the game can actually produce.
func (k Key) IsValidInstance() bool {
	return k.InstanceID <= MaxInstance
}

// IsPlace reports whether the key names an actual location. A zero world or
// zone marks "not a place" (menu lobbies, loading screens).
func (k Key) IsPlace() bool {
	return k.WorldID != 0 && k.ZoneID != 0
}

// PlaceKey renders the canonical place string shared by every snapshot taken
// at the same location. Callers that hold millions of snapshots should intern
// the result (see index.Interner); equality of the string never substitutes
// for comparing Keys.
func (k Key) PlaceKey() string {
	return fmt.Sprintf("%d_%d_%d", k.WorldID, k.ZoneID, k.InstanceID)
}
