package geo

import (
	"math"
	"testing"
)

func TestKeyPlacePredicates(t *testing.T) {
	k := Key{WorldID: 62, ZoneID: 818, InstanceID: 0}
	if !k.IsPlace() {
		t.Fatalf("expected %+v to be a place", k)
	}
	if !k.IsValidInstance() {
		t.Fatalf("expected instance 0 to be valid")
	}
	if got := k.PlaceKey(); got != "62_818_0" {
		t.Fatalf("unexpected place key %q", got)
	}
	if (Key{WorldID: 62, InstanceID: 1}).IsPlace() {
		t.Fatalf("zero zone should not be a place")
	}
	if (Key{ZoneID: 818}).IsPlace() {
		t.Fatalf("zero world should not be a place")
	}
	if (Key{WorldID: 62, ZoneID: 818, InstanceID: MaxInstance + 1}).IsValidInstance() {
		t.Fatalf("instance above %d should be invalid", MaxInstance)
	}
}

func TestFlagRoundTrip(t *testing.T) {
	transforms := []MapTransform{
		{Scale: 1.0, OffsetX: 0, OffsetY: 0, OffsetZ: 0},
		{Scale: 0.95, OffsetX: 448, OffsetY: 584, OffsetZ: -120},
		{Scale: 2.0, OffsetX: -1024, OffsetY: 512, OffsetZ: 34},
	}
	positions := []Coords{
		{X: 0, Y: 0, Z: 0},
		{X: 123.456, Y: -654.321, Z: 77.7},
		{X: -1000, Y: 1000, Z: -250},
	}
	for _, tr := range transforms {
		for _, pos := range positions {
			flag := RawToFlagCoords(pos, tr)
			back := FlagToRawCoords(flag, tr)
			if math.Abs(back.X-pos.X) > 1e-6 || math.Abs(back.Y-pos.Y) > 1e-6 || math.Abs(back.Z-pos.Z) > 1e-6 {
				t.Fatalf("flag round trip drifted: %+v -> %+v -> %+v (transform %+v)", pos, flag, back, tr)
			}
		}
	}
}

func TestPixelRoundTrip(t *testing.T) {
	for _, scale := range []float64{0.95, 1.0, 2.0} {
		for _, resolution := range []float64{1024, 2048} {
			for _, flag := range []float64{1, 13.7, 42.0} {
				pixel := FlagToPixel(flag, scale, resolution)
				back := PixelToFlag(pixel, scale, resolution)
				if math.Abs(back-flag) > 1e-9 {
					t.Fatalf("pixel round trip drifted: flag %v -> pixel %v -> %v", flag, pixel, back)
				}
			}
		}
	}
}

func TestDeltaSqIgnoresElevation(t *testing.T) {
	a := Coords{X: 3, Y: 4, Z: 100}
	b := Coords{X: 0, Y: 0, Z: -100}
	if got := a.DeltaSq(b); got != 25 {
		t.Fatalf("expected squared distance 25, got %v", got)
	}
}
