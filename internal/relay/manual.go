package relay

import "time"

const manualDuplicateWindow = 15 * time.Minute

// Manual is a player-authored report: an ad-hoc sighting or event call-out
// that carries free text instead of machine-read entity state. The relay ID
// is the reporting player's id.
type Manual struct {
	Reporter     string
	HomeWorldID  uint32
	ReporterHash uint64
	// Scope is the jurisdiction index key the report should propagate to.
	Scope   string
	Tag     string
	Message string
}

func (m *Manual) mergeFrom(incoming *Manual) {
	m.Scope = incoming.Scope
	m.Tag = incoming.Tag
	m.Message = incoming.Message
}

// NewManual builds a manual report relay snapshot.
func NewManual(place Place, reporterID uint32, manual Manual) *Relay {
	return &Relay{Kind: KindManual, Place: place, ID: reporterID, Manual: &manual}
}
