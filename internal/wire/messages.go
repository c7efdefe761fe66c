// Package wire encodes relay and control messages into their tagged binary
// form. Fields are addressed by small integer keys rather than names, so
// additive schema evolution never breaks older readers, and each payload
// travels under one of four fixed compression profiles.
package wire

import (
	"errors"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"

	"sightrelay/internal/geo"
	"sightrelay/internal/relay"
)

// MessageType discriminates envelope payloads.
type MessageType uint8

const (
	MessageHandshake MessageType = 1
	MessageRelay     MessageType = 2
	MessageHeartbeat MessageType = 3
	MessageSubscribe MessageType = 4
)

// Envelope is the top-level frame exchanged on every connection.
type Envelope struct {
	Version int         `cbor:"1,keyasint"`
	Type    MessageType `cbor:"2,keyasint"`
	// Relay carries a discriminator-prefixed relay payload (see EncodeRelay).
	Relay     []byte     `cbor:"3,keyasint,omitempty"`
	Handshake *Handshake `cbor:"4,keyasint,omitempty"`
	// Stats maps jurisdiction index keys, verbatim, to relay counts.
	Stats map[string]int `cbor:"5,keyasint,omitempty"`
	// Jurisdiction is the index key a subscribe message filters on.
	Jurisdiction string `cbor:"6,keyasint,omitempty"`
	SentAt       int64  `cbor:"7,keyasint,omitempty"`
}

// ErrUnknownVariant marks a relay payload whose discriminator byte is not
// registered.
var ErrUnknownVariant = errors.New("wire: unknown relay variant")

// ErrShortPayload marks a relay payload too short to carry a discriminator.
var ErrShortPayload = errors.New("wire: short relay payload")

// Fixed-point wire scales. X and Y are quantized to millimeters-of-a-unit,
// Z to tenths; decode divides by the same constants.
const (
	coordScaleXY = 1000.0
	coordScaleZ  = 10.0
)

func quantize(v, scale float64) int32 {
	return int32(math.Round(v * scale))
}

func dequantize(v int32, scale float64) float64 {
	return float64(v) / scale
}

type huntWire struct {
	WorldID    uint32 `cbor:"1,keyasint"`
	ZoneID     uint32 `cbor:"2,keyasint"`
	InstanceID uint32 `cbor:"3,keyasint,omitempty"`
	X          int32  `cbor:"4,keyasint"`
	Y          int32  `cbor:"5,keyasint"`
	Z          int32  `cbor:"6,keyasint"`
	ID         uint32 `cbor:"7,keyasint"`
	Release    uint8  `cbor:"8,keyasint,omitempty"`
	ActorID    uint32 `cbor:"9,keyasint"`
	CurrentHP  uint32 `cbor:"10,keyasint"`
	MaxHP      uint32 `cbor:"11,keyasint"`
	Players    int    `cbor:"12,keyasint,omitempty"`
}

type fateWire struct {
	WorldID    uint32  `cbor:"1,keyasint"`
	ZoneID     uint32  `cbor:"2,keyasint"`
	InstanceID uint32  `cbor:"3,keyasint,omitempty"`
	X          int32   `cbor:"4,keyasint"`
	Y          int32   `cbor:"5,keyasint"`
	Z          int32   `cbor:"6,keyasint"`
	ID         uint32  `cbor:"7,keyasint"`
	Release    uint8   `cbor:"8,keyasint,omitempty"`
	Progress   uint8   `cbor:"9,keyasint,omitempty"`
	Status     uint8   `cbor:"10,keyasint,omitempty"`
	StartTime  float64 `cbor:"11,keyasint,omitempty"`
	Duration   float64 `cbor:"12,keyasint,omitempty"`
	Players    int     `cbor:"13,keyasint,omitempty"`
}

type manualWire struct {
	WorldID      uint32 `cbor:"1,keyasint"`
	ZoneID       uint32 `cbor:"2,keyasint"`
	InstanceID   uint32 `cbor:"3,keyasint,omitempty"`
	X            int32  `cbor:"4,keyasint"`
	Y            int32  `cbor:"5,keyasint"`
	Z            int32  `cbor:"6,keyasint"`
	ID           uint32 `cbor:"7,keyasint"`
	Release      uint8  `cbor:"8,keyasint,omitempty"`
	Reporter     string `cbor:"9,keyasint"`
	HomeWorldID  uint32 `cbor:"10,keyasint,omitempty"`
	ReporterHash uint64 `cbor:"11,keyasint,omitempty"`
	Scope        string `cbor:"12,keyasint,omitempty"`
	Tag          string `cbor:"13,keyasint,omitempty"`
	Message      string `cbor:"14,keyasint,omitempty"`
}

// EncodeRelay renders a relay snapshot as a single discriminator byte
// followed by the variant's integer-keyed body.
func EncodeRelay(r *relay.Relay) ([]byte, error) {
	info, ok := r.Kind.Info()
	if !ok {
		return nil, fmt.Errorf("%w: kind %d", ErrUnknownVariant, r.Kind)
	}
	var (
		body []byte
		err  error
	)
	switch r.Kind {
	case relay.KindHunt:
		body, err = cbor.Marshal(huntWire{
			WorldID:    r.Place.Key.WorldID,
			ZoneID:     r.Place.Key.ZoneID,
			InstanceID: r.Place.Key.InstanceID,
			X:          quantize(r.Place.Coords.X, coordScaleXY),
			Y:          quantize(r.Place.Coords.Y, coordScaleXY),
			Z:          quantize(r.Place.Coords.Z, coordScaleZ),
			ID:         r.ID,
			Release:    uint8(r.Release),
			ActorID:    r.Hunt.ActorID,
			CurrentHP:  r.Hunt.CurrentHP,
			MaxHP:      r.Hunt.MaxHP,
			Players:    r.Hunt.Players,
		})
	case relay.KindFate:
		body, err = cbor.Marshal(fateWire{
			WorldID:    r.Place.Key.WorldID,
			ZoneID:     r.Place.Key.ZoneID,
			InstanceID: r.Place.Key.InstanceID,
			X:          quantize(r.Place.Coords.X, coordScaleXY),
			Y:          quantize(r.Place.Coords.Y, coordScaleXY),
			Z:          quantize(r.Place.Coords.Z, coordScaleZ),
			ID:         r.ID,
			Release:    uint8(r.Release),
			Progress:   r.Fate.Progress,
			Status:     uint8(r.Fate.Status),
			StartTime:  r.Fate.StartTime,
			Duration:   r.Fate.Duration,
			Players:    r.Fate.Players,
		})
	case relay.KindManual:
		body, err = cbor.Marshal(manualWire{
			WorldID:      r.Place.Key.WorldID,
			ZoneID:       r.Place.Key.ZoneID,
			InstanceID:   r.Place.Key.InstanceID,
			X:            quantize(r.Place.Coords.X, coordScaleXY),
			Y:            quantize(r.Place.Coords.Y, coordScaleXY),
			Z:            quantize(r.Place.Coords.Z, coordScaleZ),
			ID:           r.ID,
			Release:      uint8(r.Release),
			Reporter:     r.Manual.Reporter,
			HomeWorldID:  r.Manual.HomeWorldID,
			ReporterHash: r.Manual.ReporterHash,
			Scope:        r.Manual.Scope,
			Tag:          r.Manual.Tag,
			Message:      r.Manual.Message,
		})
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnknownVariant, r.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("wire: encode %s: %w", r.Kind, err)
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, info.WireTag)
	return append(out, body...), nil
}

// DecodeRelay inverts EncodeRelay.
func DecodeRelay(payload []byte) (*relay.Relay, error) {
	if len(payload) < 1 {
		return nil, ErrShortPayload
	}
	kind, ok := relay.KindFromWireTag(payload[0])
	if !ok {
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownVariant, payload[0])
	}
	body := payload[1:]
	switch kind {
	case relay.KindHunt:
		var w huntWire
		if err := cbor.Unmarshal(body, &w); err != nil {
			return nil, fmt.Errorf("wire: decode hunt: %w", err)
		}
		out := relay.NewHunt(wirePlace(w.WorldID, w.ZoneID, w.InstanceID, w.X, w.Y, w.Z), w.ID, relay.Hunt{
			ActorID:   w.ActorID,
			CurrentHP: w.CurrentHP,
			MaxHP:     w.MaxHP,
			Players:   w.Players,
		})
		out.Release = relay.ReleaseMode(w.Release)
		return out, nil
	case relay.KindFate:
		var w fateWire
		if err := cbor.Unmarshal(body, &w); err != nil {
			return nil, fmt.Errorf("wire: decode fate: %w", err)
		}
		out := relay.NewFate(wirePlace(w.WorldID, w.ZoneID, w.InstanceID, w.X, w.Y, w.Z), w.ID, relay.Fate{
			Progress:  w.Progress,
			Status:    relay.FateStatus(w.Status),
			StartTime: w.StartTime,
			Duration:  w.Duration,
			Players:   w.Players,
		})
		out.Release = relay.ReleaseMode(w.Release)
		return out, nil
	case relay.KindManual:
		var w manualWire
		if err := cbor.Unmarshal(body, &w); err != nil {
			return nil, fmt.Errorf("wire: decode manual: %w", err)
		}
		out := relay.NewManual(wirePlace(w.WorldID, w.ZoneID, w.InstanceID, w.X, w.Y, w.Z), w.ID, relay.Manual{
			Reporter:     w.Reporter,
			HomeWorldID:  w.HomeWorldID,
			ReporterHash: w.ReporterHash,
			Scope:        w.Scope,
			Tag:          w.Tag,
			Message:      w.Message,
		})
		out.Release = relay.ReleaseMode(w.Release)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownVariant, payload[0])
	}
}

func wirePlace(world, zone, instance uint32, x, y, z int32) relay.Place {
	return relay.Place{
		Key: geo.Key{WorldID: world, ZoneID: zone, InstanceID: instance},
		Coords: geo.Coords{
			X: dequantize(x, coordScaleXY),
			Y: dequantize(y, coordScaleXY),
			Z: dequantize(z, coordScaleZ),
		},
	}
}

// Encode renders an envelope and applies the profile's compression step.
func Encode(env Envelope, p Profile) ([]byte, error) {
	env.Version = Version
	raw, err := cbor.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("wire: encode envelope: %w", err)
	}
	return p.Compress(raw)
}

// Decode inverts the matching profile's Encode.
func Decode(data []byte, p Profile) (Envelope, error) {
	raw, err := p.Decompress(data)
	if err != nil {
		return Envelope{}, err
	}
	var env Envelope
	if err := cbor.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: envelope: %v", ErrCorrupt, err)
	}
	if env.Version != Version {
		return Envelope{}, fmt.Errorf("wire: unsupported protocol version %d", env.Version)
	}
	return env, nil
}

// EncodeRelayEnvelope is the common case: wrap one relay snapshot and encode
// it under the profile.
func EncodeRelayEnvelope(r *relay.Relay, p Profile) ([]byte, error) {
	payload, err := EncodeRelay(r)
	if err != nil {
		return nil, err
	}
	return Encode(Envelope{Type: MessageRelay, Relay: payload}, p)
}
