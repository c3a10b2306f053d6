package domain

import (
	"encoding/json"
	"maps"
)

const (
	DefaultMinOpenRooms = 3
	DefaultMaxRooms     = 10
	DefaultMemberCap    = 10
)

// Keys an options payload may carry that are never kept as attributes,
// because they would shadow state owned by the entity itself.
var reservedKeys = map[string]struct{}{
	"id":          {},
	"members":     {},
	"allMembers":  {},
	"rooms":       {},
	"allRooms":    {},
	"openRooms":   {},
	"closedRooms": {},
}

// MemberOptions configures a new Member. Unset fields take their defaults.
type MemberOptions struct {
	Name *string `json:"name,omitempty" koanf:"name"`

	Attributes map[string]any `json:"-" koanf:",remain"`
}

// RoomOptions configures a new Room. Fields are pointers so a template can be
// merged with overrides key by key.
type RoomOptions struct {
	Name               *string `json:"name,omitempty" koanf:"name"`
	SoftMemberCap      *int    `json:"softMemberCap,omitempty" koanf:"softMemberCap"`
	MemberCap          *int    `json:"memberCap,omitempty" koanf:"memberCap"`
	IsOpen             *bool   `json:"isOpen,omitempty" koanf:"isOpen"`
	CloseOnFull        *bool   `json:"closeOnFull,omitempty" koanf:"closeOnFull"`
	EndOnCloseAndEmpty *bool   `json:"endOnCloseAndEmpty,omitempty" koanf:"endOnCloseAndEmpty"`
	OpenWhenNotFull    *bool   `json:"openWhenNotFull,omitempty" koanf:"openWhenNotFull"`

	Attributes map[string]any `json:"-" koanf:",remain"`
}

// LobbyOptions configures a new Lobby. RoomOptions is the template applied to
// every room the lobby creates.
type LobbyOptions struct {
	Name         *string     `json:"name,omitempty" koanf:"name"`
	MinOpenRooms *int        `json:"minOpenRooms,omitempty" koanf:"minOpenRooms"`
	MaxRooms     *int        `json:"maxRooms,omitempty" koanf:"maxRooms"`
	RoomOptions  RoomOptions `json:"roomOptions" koanf:"roomOptions"`

	Attributes map[string]any `json:"-" koanf:",remain"`
}

// Merge returns o with every field set in override replacing its own.
func (o RoomOptions) Merge(override RoomOptions) RoomOptions {
	out := o
	if override.Name != nil {
		out.Name = override.Name
	}
	if override.SoftMemberCap != nil {
		out.SoftMemberCap = override.SoftMemberCap
	}
	if override.MemberCap != nil {
		out.MemberCap = override.MemberCap
	}
	if override.IsOpen != nil {
		out.IsOpen = override.IsOpen
	}
	if override.CloseOnFull != nil {
		out.CloseOnFull = override.CloseOnFull
	}
	if override.EndOnCloseAndEmpty != nil {
		out.EndOnCloseAndEmpty = override.EndOnCloseAndEmpty
	}
	if override.OpenWhenNotFull != nil {
		out.OpenWhenNotFull = override.OpenWhenNotFull
	}
	out.Attributes = mergeAttributes(o.Attributes, override.Attributes)
	return out
}

func (o *MemberOptions) UnmarshalJSON(data []byte) error {
	type plain MemberOptions
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	attrs, err := extraAttributes(data, "name")
	if err != nil {
		return err
	}
	p.Attributes = attrs

	*o = MemberOptions(p)
	return nil
}

func (o *RoomOptions) UnmarshalJSON(data []byte) error {
	type plain RoomOptions
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	attrs, err := extraAttributes(data,
		"name", "softMemberCap", "memberCap", "isOpen",
		"closeOnFull", "endOnCloseAndEmpty", "openWhenNotFull",
	)
	if err != nil {
		return err
	}
	p.Attributes = attrs

	*o = RoomOptions(p)
	return nil
}

func (o *LobbyOptions) UnmarshalJSON(data []byte) error {
	type plain LobbyOptions
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	attrs, err := extraAttributes(data, "name", "minOpenRooms", "maxRooms", "roomOptions")
	if err != nil {
		return err
	}
	p.Attributes = attrs

	*o = LobbyOptions(p)
	return nil
}

func String(v string) *string { return &v }
func Int(v int) *int          { return &v }
func Bool(v bool) *bool       { return &v }

func extraAttributes(data []byte, known ...string) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	for _, k := range known {
		delete(raw, k)
	}

	return cleanAttributes(raw), nil
}

func cleanAttributes(attrs map[string]any) map[string]any {
	if len(attrs) == 0 {
		return nil
	}

	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if _, reserved := reservedKeys[k]; reserved {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mergeAttributes(base, override map[string]any) map[string]any {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}

	out := make(map[string]any, len(base)+len(override))
	maps.Copy(out, base)
	maps.Copy(out, override)
	return out
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
