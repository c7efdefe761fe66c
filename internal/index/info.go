// Package index derives and parses jurisdiction index keys: the short strings
// a relay is filed under so subscribers at any scope (instance, zone, world,
// datacenter, region, audience, global) can match it in O(1).
package index

import (
	"errors"

	"sightrelay/internal/gamedb"
	"sightrelay/internal/geo"
)

// Type enumerates every jurisdiction key shape.
type Type uint8

const (
	TypeNone Type = iota
	TypeWorld
	TypeWorldZone
	TypeWorldZoneInstance
	TypeWorldInstance
	TypeZone
	TypeZoneInstance
	TypeInstance
	TypeDatacenter
	TypeDatacenterZone
	TypeDatacenterZoneInstance
	TypeDatacenterInstance
	TypeRegion
	TypeRegionZone
	TypeRegionZoneInstance
	TypeRegionInstance
	TypeAudience
	TypeAudienceZone
	TypeAudienceZoneInstance
	TypeAudienceInstance
	TypeAll

	typeCount = 21
)

var typeNames = [typeCount]string{
	"none", "world", "worldZone", "worldZoneInstance", "worldInstance",
	"zone", "zoneInstance", "instance",
	"datacenter", "datacenterZone", "datacenterZoneInstance", "datacenterInstance",
	"region", "regionZone", "regionZoneInstance", "regionInstance",
	"audience", "audienceZone", "audienceZoneInstance", "audienceInstance",
	"all",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "invalid"
}

// ErrMultipleScopes marks an Info carrying more than one of the four
// mutually exclusive scope ids. This is a caller bug, not recoverable input.
var ErrMultipleScopes = errors.New("index: more than one scope id populated")

// ErrMissingField marks a key request whose Info lacks a field the requested
// type needs.
var ErrMissingField = errors.New("index: info missing required field")

// ErrUnparseableKey marks a key that matches none of the fixed key formats.
var ErrUnparseableKey = errors.New("index: unparseable key")

// ErrUnknownType marks a Type value outside the fixed table. This is a caller
// bug, not recoverable input.
var ErrUnknownType = errors.New("index: unknown index type")

// Info holds the optional fields a jurisdiction key is derived from. At most
// one of WorldID, DatacenterID, RegionID and AudienceID may be set; ZoneID
// and InstanceID combine freely with any of them.
type Info struct {
	WorldID      *uint32
	DatacenterID *uint32
	RegionID     *uint32
	AudienceID   *uint32
	ZoneID       *uint32
	InstanceID   *uint32
}

// ID wraps a literal id for an optional Info field.
func ID(v uint32) *uint32 { return &v }

// Equal compares two infos field by field.
func (i Info) Equal(other Info) bool {
	return optEqual(i.WorldID, other.WorldID) &&
		optEqual(i.DatacenterID, other.DatacenterID) &&
		optEqual(i.RegionID, other.RegionID) &&
		optEqual(i.AudienceID, other.AudienceID) &&
		optEqual(i.ZoneID, other.ZoneID) &&
		optEqual(i.InstanceID, other.InstanceID)
}

func optEqual(a, b *uint32) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// PlaceInfo builds the world-scoped Info for a concrete place.
func PlaceInfo(k geo.Key) Info {
	return Info{WorldID: ID(k.WorldID), ZoneID: ID(k.ZoneID), InstanceID: ID(k.InstanceID)}
}

// DeriveIndexType maps the populated fields to the single type that covers
// all of them. Populating more than one scope id is a contract violation and
// fails fast with ErrMultipleScopes.
func DeriveIndexType(info Info) (Type, error) {
	scopes := 0
	for _, id := range []*uint32{info.WorldID, info.DatacenterID, info.RegionID, info.AudienceID} {
		if id != nil {
			scopes++
		}
	}
	if scopes > 1 {
		return TypeNone, ErrMultipleScopes
	}
	zone := info.ZoneID != nil
	inst := info.InstanceID != nil
	switch {
	case info.WorldID != nil:
		return pick(zone, inst, TypeWorld, TypeWorldZone, TypeWorldZoneInstance, TypeWorldInstance), nil
	case info.DatacenterID != nil:
		return pick(zone, inst, TypeDatacenter, TypeDatacenterZone, TypeDatacenterZoneInstance, TypeDatacenterInstance), nil
	case info.RegionID != nil:
		return pick(zone, inst, TypeRegion, TypeRegionZone, TypeRegionZoneInstance, TypeRegionInstance), nil
	case info.AudienceID != nil:
		return pick(zone, inst, TypeAudience, TypeAudienceZone, TypeAudienceZoneInstance, TypeAudienceInstance), nil
	case zone && inst:
		return TypeZoneInstance, nil
	case zone:
		return TypeZone, nil
	case inst:
		return TypeInstance, nil
	default:
		return TypeNone, nil
	}
}

func pick(zone, inst bool, bare, withZone, withBoth, instOnly Type) Type {
	switch {
	case zone && inst:
		return withBoth
	case zone:
		return withZone
	case inst:
		return instOnly
	default:
		return bare
	}
}

// ScopeInfos expands a resolved place into the four scope-consistent infos a
// relay is filed under. Each honors the one-scope-id invariant on its own.
func ScopeInfos(p gamedb.ResolvedPlace) [4]Info {
	zone := ID(p.Key.ZoneID)
	inst := ID(p.Key.InstanceID)
	return [4]Info{
		{WorldID: ID(p.Key.WorldID), ZoneID: zone, InstanceID: inst},
		{DatacenterID: ID(p.DatacenterID), ZoneID: zone, InstanceID: inst},
		{RegionID: ID(p.RegionID), ZoneID: zone, InstanceID: inst},
		{AudienceID: ID(p.AudienceID), ZoneID: zone, InstanceID: inst},
	}
}
