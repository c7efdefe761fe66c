package relay

import (
	"testing"
	"time"

	"sightrelay/internal/gamedb"
	"sightrelay/internal/geo"
)

var testNow = time.UnixMilli(1_700_000_000_000)

func testPlace() Place {
	return Place{
		Key:    geo.Key{WorldID: 62, ZoneID: 818, InstanceID: 0},
		Coords: geo.Coords{X: 100, Y: 200, Z: 10},
	}
}

func huntAt(place Place, actorID, cur, max uint32) *Relay {
	return NewHunt(place, 8653, Hunt{ActorID: actorID, CurrentHP: cur, MaxHP: max})
}

func TestRelayKeys(t *testing.T) {
	r := huntAt(testPlace(), 0xAABB, 50, 100)
	if got := r.Key(); got != "62_8653_0" {
		t.Fatalf("unexpected relay key %q", got)
	}
	if got := r.SortKey(); got != "818_8653" {
		t.Fatalf("unexpected sort key %q", got)
	}
}

func TestHuntLiveness(t *testing.T) {
	alive := huntAt(testPlace(), 1, 30, 100)
	if !alive.IsAlive(testNow) {
		t.Fatalf("hunt with hp should be alive")
	}
	if !alive.IsTouched() {
		t.Fatalf("damaged hunt should be touched")
	}
	fresh := huntAt(testPlace(), 1, 100, 100)
	if fresh.IsTouched() {
		t.Fatalf("full-health hunt should not be touched")
	}
	dead := huntAt(testPlace(), 1, 0, 100)
	if !dead.IsDead(testNow) {
		t.Fatalf("zero-hp hunt should be dead")
	}
}

func TestHuntSimilarityBoundaries(t *testing.T) {
	place := testPlace()
	cases := []struct {
		name    string
		curA    uint32
		curB    uint32
		similar bool
	}{
		{"full vs almost full", 100, 99, false},
		{"mid drift within tolerance", 52, 51, true},
		{"near death vs dead", 1, 0, false},
		{"both full", 100, 100, true},
		{"both dead", 0, 0, true},
		{"drift beyond tolerance", 60, 50, false},
	}
	for _, tc := range cases {
		a := huntAt(place, 1, tc.curA, 100)
		b := huntAt(place, 2, tc.curB, 100)
		if got := a.IsSimilarData(b, testNow); got != tc.similar {
			t.Fatalf("%s: IsSimilarData = %v, want %v", tc.name, got, tc.similar)
		}
	}
}

func TestSimilarityCoordinateThreshold(t *testing.T) {
	near := testPlace()
	far := testPlace()
	far.Coords.X += 10
	a := huntAt(near, 1, 50, 100)
	b := huntAt(far, 2, 50, 100)
	if a.IsSimilarData(b, testNow) {
		t.Fatalf("positions 10 units apart should not be similar")
	}
	nearby := testPlace()
	nearby.Coords.X += 3
	c := huntAt(nearby, 2, 50, 100)
	if !a.IsSimilarData(c, testNow) {
		t.Fatalf("positions 3 units apart should be similar")
	}
}

func TestIdentityIndependentOfSimilarity(t *testing.T) {
	a := huntAt(testPlace(), 0xAABB, 80, 100)
	far := testPlace()
	far.Coords.X += 500
	far.Coords.Y -= 500
	b := huntAt(far, 0xAABB, 20, 100)
	if !a.IsSameEntity(b) {
		t.Fatalf("matching actor ids must be the same entity")
	}
	if a.IsSimilarData(b, testNow) {
		t.Fatalf("far-apart reports should not be similar")
	}
	c := huntAt(testPlace(), 0xCCDD, 80, 100)
	if a.IsSameEntity(c) {
		t.Fatalf("different actor ids must not be the same entity")
	}
}

func TestMergeMonotonicity(t *testing.T) {
	stored := huntAt(testPlace(), 1, 50, 100)
	stored.Hunt.Players = 3
	incoming := huntAt(testPlace(), 1, 40, 100)
	incoming.Hunt.Players = 1
	stored.UpdateWith(incoming, testNow)
	if stored.Hunt.Players != 3 {
		t.Fatalf("player count should not shrink while alive, got %d", stored.Hunt.Players)
	}
	if stored.Hunt.CurrentHP != 40 {
		t.Fatalf("hp should be last-writer-wins, got %d", stored.Hunt.CurrentHP)
	}

	dead := huntAt(testPlace(), 1, 0, 100)
	dead.Hunt.Players = 7
	respawn := huntAt(testPlace(), 2, 100, 100)
	respawn.Hunt.Players = 1
	dead.UpdateWith(respawn, testNow)
	if dead.Hunt.Players != 1 {
		t.Fatalf("player count should reset on a dead target, got %d", dead.Hunt.Players)
	}
}

func TestReleaseModeEscalation(t *testing.T) {
	stored := huntAt(testPlace(), 1, 50, 100)
	stored.Release = ReleaseForced
	incoming := huntAt(testPlace(), 1, 45, 100)
	incoming.Release = ReleaseNormal
	stored.UpdateWith(incoming, testNow)
	if stored.Release != ReleaseForced {
		t.Fatalf("release must not downgrade while alive, got %v", stored.Release)
	}

	dead := huntAt(testPlace(), 1, 0, 100)
	dead.Release = ReleaseForced
	dead.UpdateWith(incoming, testNow)
	if dead.Release != ReleaseNormal {
		t.Fatalf("release should reset on a dead target, got %v", dead.Release)
	}
}

func TestDuplicateThresholds(t *testing.T) {
	if got := huntAt(testPlace(), 1, 50, 100).DuplicateThreshold(); got != 15*time.Second {
		t.Fatalf("hunt duplicate window = %v", got)
	}
	f := NewFate(testPlace(), 1855, Fate{Status: FateStatusRunning})
	if got := f.DuplicateThreshold(); got != 15*time.Minute {
		t.Fatalf("fate duplicate window = %v", got)
	}
}

func TestValidityGate(t *testing.T) {
	db := gamedb.Bundled()
	if !huntAt(testPlace(), 1, 50, 100).IsValid(db) {
		t.Fatalf("known species in a field zone should be valid")
	}

	unknownSpecies := NewHunt(testPlace(), 9999, Hunt{CurrentHP: 50, MaxHP: 100})
	if unknownSpecies.IsValid(db) {
		t.Fatalf("unknown species should be invalid")
	}

	wrongZone := testPlace()
	wrongZone.Key.ZoneID = 813
	if NewHunt(wrongZone, 8653, Hunt{CurrentHP: 50, MaxHP: 100}).IsValid(db) {
		t.Fatalf("species outside its zone list should be invalid")
	}

	nonField := testPlace()
	nonField.Key.ZoneID = 129
	if NewHunt(nonField, 8653, Hunt{CurrentHP: 50, MaxHP: 100}).IsValid(db) {
		t.Fatalf("non-field zone should reject hunts")
	}
	manualInTown := NewManual(nonField, 77, Manual{Reporter: "A. Reporter"})
	if !manualInTown.IsValid(db) {
		t.Fatalf("manual reports are exempt from the field-zone rule")
	}

	privateWorld := testPlace()
	privateWorld.Key.WorldID = 201
	if NewManual(privateWorld, 77, Manual{Reporter: "A. Reporter"}).IsValid(db) {
		t.Fatalf("non-public world should be invalid")
	}

	badInstance := testPlace()
	badInstance.Key.InstanceID = 12
	if huntAt(badInstance, 1, 50, 100).IsValid(db) {
		t.Fatalf("instance outside [0,9] should be invalid")
	}
}

func TestKindRegistry(t *testing.T) {
	for _, k := range []Kind{KindHunt, KindFate, KindManual} {
		info, ok := k.Info()
		if !ok {
			t.Fatalf("kind %d missing from registry", k)
		}
		back, ok := KindFromWireTag(info.WireTag)
		if !ok || back != k {
			t.Fatalf("wire tag %d should map back to %v, got %v", info.WireTag, k, back)
		}
	}
	if _, ok := KindFromWireTag(0); ok {
		t.Fatalf("tag 0 should be unknown")
	}
	if _, ok := KindFromWireTag(9); ok {
		t.Fatalf("tag 9 should be unknown")
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := huntAt(testPlace(), 1, 50, 100)
	clone := original.Clone()
	clone.Hunt.CurrentHP = 1
	if original.Hunt.CurrentHP != 50 {
		t.Fatalf("clone should not share variant state")
	}
	if !Equal(original, original.Clone()) {
		t.Fatalf("fresh clone should compare equal")
	}
}
