package index

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type field uint8

const (
	fieldWorld field = iota
	fieldDatacenter
	fieldRegion
	fieldAudience
	fieldZone
	fieldInstance
)

// format describes one key shape: a literal prefix followed by decimal ids
// joined with underscores. The same table drives both generation and parsing
// so the grammar cannot drift between the two.
type format struct {
	literal string // fixed key for field-less types ("none", "all")
	prefix  string
	fields  []field
}

var formats = [typeCount]format{
	TypeNone:                   {literal: "none"},
	TypeWorld:                  {fields: []field{fieldWorld}},
	TypeWorldZone:              {fields: []field{fieldWorld, fieldZone}},
	TypeWorldZoneInstance:      {fields: []field{fieldWorld, fieldZone, fieldInstance}},
	TypeWorldInstance:          {prefix: "wi", fields: []field{fieldWorld, fieldInstance}},
	TypeZone:                   {prefix: "z", fields: []field{fieldZone}},
	TypeZoneInstance:           {prefix: "z", fields: []field{fieldZone, fieldInstance}},
	TypeInstance:               {prefix: "i", fields: []field{fieldInstance}},
	TypeDatacenter:             {prefix: "d", fields: []field{fieldDatacenter}},
	TypeDatacenterZone:         {prefix: "d", fields: []field{fieldDatacenter, fieldZone}},
	TypeDatacenterZoneInstance: {prefix: "d", fields: []field{fieldDatacenter, fieldZone, fieldInstance}},
	TypeDatacenterInstance:     {prefix: "di", fields: []field{fieldDatacenter, fieldInstance}},
	TypeRegion:                 {prefix: "r", fields: []field{fieldRegion}},
	TypeRegionZone:             {prefix: "r", fields: []field{fieldRegion, fieldZone}},
	TypeRegionZoneInstance:     {prefix: "r", fields: []field{fieldRegion, fieldZone, fieldInstance}},
	TypeRegionInstance:         {prefix: "ri", fields: []field{fieldRegion, fieldInstance}},
	TypeAudience:               {prefix: "a", fields: []field{fieldAudience}},
	TypeAudienceZone:           {prefix: "a", fields: []field{fieldAudience, fieldZone}},
	TypeAudienceZoneInstance:   {prefix: "a", fields: []field{fieldAudience, fieldZone, fieldInstance}},
	TypeAudienceInstance:       {prefix: "ai", fields: []field{fieldAudience, fieldInstance}},
	TypeAll:                    {literal: "all"},
}

var patterns = func() [typeCount]*regexp.Regexp {
	var out [typeCount]*regexp.Regexp
	for t, f := range formats {
		if f.literal != "" {
			out[t] = regexp.MustCompile("^" + f.literal + "$")
			continue
		}
		expr := "^" + f.prefix + `(\d+)`
		for range f.fields[1:] {
			expr += `_(\d+)`
		}
		out[t] = regexp.MustCompile(expr + "$")
	}
	return out
}()

func (i Info) get(f field) (uint32, bool) {
	var p *uint32
	switch f {
	case fieldWorld:
		p = i.WorldID
	case fieldDatacenter:
		p = i.DatacenterID
	case fieldRegion:
		p = i.RegionID
	case fieldAudience:
		p = i.AudienceID
	case fieldZone:
		p = i.ZoneID
	case fieldInstance:
		p = i.InstanceID
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

func (i *Info) set(f field, v uint32) {
	switch f {
	case fieldWorld:
		i.WorldID = &v
	case fieldDatacenter:
		i.DatacenterID = &v
	case fieldRegion:
		i.RegionID = &v
	case fieldAudience:
		i.AudienceID = &v
	case fieldZone:
		i.ZoneID = &v
	case fieldInstance:
		i.InstanceID = &v
	}
}

// GetIndexKey renders the key of the requested type from info. Generation is
// lowercase only; keys appear verbatim on the wire, so the exact byte layout
// matters. A missing field yields ErrMissingField.
func GetIndexKey(info Info, t Type) (string, error) {
	if int(t) >= typeCount {
		return "", fmt.Errorf("%w: %d", ErrUnknownType, t)
	}
	f := formats[t]
	if f.literal != "" {
		return f.literal, nil
	}
	var b strings.Builder
	b.WriteString(f.prefix)
	for n, fld := range f.fields {
		v, ok := info.get(fld)
		if !ok {
			return "", fmt.Errorf("%w: type %s", ErrMissingField, t)
		}
		if n > 0 {
			b.WriteByte('_')
		}
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	return b.String(), nil
}

// DerivedKey renders the key for info's own derived type.
func DerivedKey(info Info) (string, error) {
	t, err := DeriveIndexType(info)
	if err != nil {
		return "", err
	}
	return GetIndexKey(info, t)
}

// Parse matches a key against every format and returns the first structural
// hit. Parsing is case-insensitive; an unmatched key is a structural failure
// with no partial result.
func Parse(key string) (Type, Info, error) {
	lowered := strings.ToLower(key)
	for t := TypeNone; t <= TypeAll; t++ {
		if info, ok := tryFormat(lowered, t); ok {
			return t, info, nil
		}
	}
	return TypeNone, Info{}, fmt.Errorf("%w: %q", ErrUnparseableKey, key)
}

// TryParse validates a key against exactly one expected type.
func TryParse(key string, t Type) (Info, error) {
	if int(t) >= typeCount {
		return Info{}, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}
	if info, ok := tryFormat(strings.ToLower(key), t); ok {
		return info, nil
	}
	return Info{}, fmt.Errorf("%w: %q as %s", ErrUnparseableKey, key, t)
}

func tryFormat(lowered string, t Type) (Info, bool) {
	m := patterns[t].FindStringSubmatch(lowered)
	if m == nil {
		return Info{}, false
	}
	var info Info
	for n, fld := range formats[t].fields {
		v, err := strconv.ParseUint(m[n+1], 10, 32)
		if err != nil {
			return Info{}, false
		}
		info.set(fld, uint32(v))
	}
	return info, true
}

// GetIndexKeys renders every key producible from the populated fields, from
// the most specific shape down to "all". TypeNone is excluded: "none" is a
// placeholder subscribers never file under.
func GetIndexKeys(info Info) []string {
	keys := make([]string, 0, 8)
	for t := TypeWorld; t <= TypeAll; t++ {
		f := formats[t]
		if f.literal == "" {
			present := true
			for _, fld := range f.fields {
				if _, ok := info.get(fld); !ok {
					present = false
					break
				}
			}
			if !present {
				continue
			}
		}
		key, err := GetIndexKey(info, t)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}
