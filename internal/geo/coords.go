package geo

// Coords is a raw game-unit position. X and Y are horizontal plane
// coordinates; Z is elevation and follows its own conversion rules.
type Coords struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DeltaSq returns the squared horizontal distance to other, in game units.
// Elevation is excluded on purpose: reporting clients disagree about Z far
// more than about the map plane.
func (c Coords) DeltaSq(other Coords) float64 {
	dx := c.X - other.X
	dy := c.Y - other.Y
	return dx*dx + dy*dy
}

// MapTransform carries the per-zone affine parameters needed to convert
// between coordinate spaces. Scale is the zone's map scale factor (already
// divided down from the database's integer size factor); the offsets are in
// raw game units.
type MapTransform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
	OffsetZ float64
}

// RawToFlag converts a raw game-unit coordinate into on-screen flag units.
func RawToFlag(raw, scale, offset float64) float64 {
	return (41.0/scale)*((raw+offset)*scale+1024.0)/2048.0 + 1.0
}

// FlagToRaw inverts RawToFlag. RawToFlag(FlagToRaw(f)) == f to within
// float rounding, which keeps display coordinates stable across the wire
// fixed-point round trip.
func FlagToRaw(flag, scale, offset float64) float64 {
	return ((flag-1.0)*2048.0*scale/41.0-1024.0)/scale - offset
}

// FlagToPixel converts flag units into map-texture pixels at the given
// resolution (pixels per full map edge, e.g. 2048 for the full-size map).
func FlagToPixel(flag, scale, resolution float64) float64 {
	return (flag - 1.0) * 50.0 * scale * resolution / 2048.0
}

// PixelToFlag inverts FlagToPixel.
func PixelToFlag(pixel, scale, resolution float64) float64 {
	return pixel*2048.0/(50.0*scale*resolution) + 1.0
}

// RawZToFlag converts a raw elevation into flag units. Z has no pixel
// representation; its transform is purely additive.
func RawZToFlag(raw, offset float64) float64 {
	return (raw - offset) / 100.0
}

// FlagZToRaw inverts RawZToFlag.
func FlagZToRaw(flag, offset float64) float64 {
	return flag*100.0 + offset
}

// RawToFlagCoords applies the zone transform to a full position.
func RawToFlagCoords(c Coords, t MapTransform) Coords {
	return Coords{
		X: RawToFlag(c.X, t.Scale, t.OffsetX),
		Y: RawToFlag(c.Y, t.Scale, t.OffsetY),
		Z: RawZToFlag(c.Z, t.OffsetZ),
	}
}

// FlagToRawCoords inverts RawToFlagCoords.
func FlagToRawCoords(c Coords, t MapTransform) Coords {
	return Coords{
		X: FlagToRaw(c.X, t.Scale, t.OffsetX),
		Y: FlagToRaw(c.Y, t.Scale, t.OffsetY),
		Z: FlagZToRaw(c.Z, t.OffsetZ),
	}
}
