package apisdk

import (
	"encoding/json"
	"maps"
)

type Member struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	RoomIDs []string `json:"roomIds,omitempty"`
}

// Room is the room detail served by the rooms endpoints. Rooms inside a
// Lobby, and lobby_change pushes, only fill the public fields: ID, Name,
// MemberIDs, MemberCount, MemberCap and IsOpen.
type Room struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	MemberIDs     []string       `json:"memberIds"`
	MemberCount   int            `json:"memberCount"`
	SoftMemberCap int            `json:"softMemberCap"`
	MemberCap     int            `json:"memberCap"`
	IsOpen        bool           `json:"isOpen"`
	HasEnded      bool           `json:"hasEnded"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

// Lobby keys rooms by id. MinOpenRooms and MaxRooms are only set on
// responses from the lobby endpoints.
type Lobby struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	MinOpenRooms int             `json:"minOpenRooms,omitempty"`
	MaxRooms     int             `json:"maxRooms,omitempty"`
	Rooms        map[string]Room `json:"rooms"`
}

// OpenRooms returns the rooms currently accepting members.
func (l Lobby) OpenRooms() []Room {
	var open []Room
	for _, r := range l.Rooms {
		if r.IsOpen {
			open = append(open, r)
		}
	}
	return open
}

// flatten encodes v and merges extra into the resulting object without
// overwriting v's own fields.
func flatten(v any, extra map[string]any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}

	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	merged := maps.Clone(extra)
	maps.Copy(merged, fields)
	return json.Marshal(merged)
}

// Ptr returns a pointer to v, for the optional fields of request params.
func Ptr[T any](v T) *T { return &v }
