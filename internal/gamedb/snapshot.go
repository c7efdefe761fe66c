package gamedb

import "sightrelay/internal/geo"

// Snapshot is a static in-memory Database. The daemon loads one from the
// bundled table below when no external loader is wired in; tests build their
// own with exactly the rows they need.
type Snapshot struct {
	Worlds  map[uint32]World
	Zones   map[uint32]Zone
	Species map[uint32][]uint32
	Events  map[uint32]struct{}
}

// NewSnapshot builds an empty snapshot ready for row insertion.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Worlds:  make(map[uint32]World),
		Zones:   make(map[uint32]Zone),
		Species: make(map[uint32][]uint32),
		Events:  make(map[uint32]struct{}),
	}
}

func (s *Snapshot) World(worldID uint32) (World, bool) {
	w, ok := s.Worlds[worldID]
	return w, ok
}

func (s *Snapshot) Zone(zoneID uint32) (Zone, bool) {
	z, ok := s.Zones[zoneID]
	return z, ok
}

func (s *Snapshot) SpeciesInZone(speciesID, zoneID uint32) bool {
	for _, zone := range s.Species[speciesID] {
		if zone == zoneID {
			return true
		}
	}
	return false
}

func (s *Snapshot) KnownEvent(eventID uint32) bool {
	_, ok := s.Events[eventID]
	return ok
}

// AddWorld inserts a world row.
func (s *Snapshot) AddWorld(w World) *Snapshot {
	s.Worlds[w.ID] = w
	return s
}

// AddZone inserts a zone row.
func (s *Snapshot) AddZone(z Zone) *Snapshot {
	s.Zones[z.ID] = z
	return s
}

// AddSpecies registers a species and the zones it spawns in.
func (s *Snapshot) AddSpecies(speciesID uint32, zoneIDs ...uint32) *Snapshot {
	s.Species[speciesID] = append(s.Species[speciesID], zoneIDs...)
	return s
}

// AddEvent registers a world-event id.
func (s *Snapshot) AddEvent(eventIDs ...uint32) *Snapshot {
	for _, id := range eventIDs {
		s.Events[id] = struct{}{}
	}
	return s
}

// Bundled returns the small built-in table the daemon falls back to. The rows
// cover one audience with two regions so jurisdiction fan-out is exercisable
// without the real game database.
func Bundled() *Snapshot {
	s := NewSnapshot()
	s.AddWorld(World{ID: 62, Name: "Diabolos", DatacenterID: 8, RegionID: 2, AudienceID: 1, Public: true})
	s.AddWorld(World{ID: 63, Name: "Gilgamesh", DatacenterID: 8, RegionID: 2, AudienceID: 1, Public: true})
	s.AddWorld(World{ID: 45, Name: "Carbuncle", DatacenterID: 5, RegionID: 1, AudienceID: 1, Public: true})
	s.AddWorld(World{ID: 201, Name: "Atelier", DatacenterID: 90, RegionID: 9, AudienceID: 2, Public: false})
	s.AddZone(Zone{ID: 818, Field: true, Transform: geo.MapTransform{Scale: 0.95, OffsetX: 448, OffsetY: 584}})
	s.AddZone(Zone{ID: 813, Field: true, Transform: geo.MapTransform{Scale: 1.0, OffsetX: 0, OffsetY: 0, OffsetZ: -120}})
	s.AddZone(Zone{ID: 129, Field: false, Transform: geo.MapTransform{Scale: 2.0, OffsetX: -84, OffsetY: 0}})
	s.AddSpecies(8653, 818)
	s.AddSpecies(8654, 818, 813)
	s.AddSpecies(4374, 813)
	s.AddEvent(1855, 1862, 1917)
	return s
}
