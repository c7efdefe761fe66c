package relay

import "time"

const (
	huntHPTolerance     = 1.0
	huntDuplicateWindow = 15 * time.Second
)

// Hunt is a timed rare-monster spawn report. ActorID is the per-spawn
// instance id the game assigns; it changes on every respawn, which makes it
// the authoritative identity signal.
type Hunt struct {
	ActorID   uint32
	CurrentHP uint32
	MaxHP     uint32
	Players   int
}

// HPPercent returns the health percentage in [0,100]. An unknown max health
// reads as 0 so it only ever matches another unknown exactly.
func (h *Hunt) HPPercent() float64 {
	if h.MaxHP == 0 {
		return 0
	}
	return 100 * float64(h.CurrentHP) / float64(h.MaxHP)
}

func (h *Hunt) mergeFrom(incoming *Hunt, dead bool) {
	if dead || incoming.Players > h.Players {
		h.Players = incoming.Players
	}
	h.CurrentHP = incoming.CurrentHP
	h.MaxHP = incoming.MaxHP
	if incoming.ActorID != 0 {
		h.ActorID = incoming.ActorID
	}
}

// NewHunt builds a hunt relay snapshot.
func NewHunt(place Place, speciesID uint32, hunt Hunt) *Relay {
	return &Relay{Kind: KindHunt, Place: place, ID: speciesID, Hunt: &hunt}
}
