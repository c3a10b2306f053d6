package contracts

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonKeys(t *testing.T, v any) []string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func TestNewLobbyView(t *testing.T) {
	s := notify.NewScheduler(nil)
	f := domain.NewFactory(s)

	l, err := f.NewLobby(domain.LobbyOptions{
		Name:         domain.String("Main"),
		MinOpenRooms: domain.Int(2),
		MaxRooms:     domain.Int(3),
	})
	require.NoError(t, err)
	s.Flush()

	rooms := l.Rooms()
	require.Len(t, rooms, 2)

	m, err := f.NewMember(domain.MemberOptions{Name: domain.String("ada")})
	require.NoError(t, err)
	require.NoError(t, rooms[0].AddMember(m))
	rooms[1].Close()
	s.Flush()

	view := NewLobbyView(l)
	assert.Equal(t, "Main", view.Name)
	assert.Len(t, view.Rooms, 3, "closing a room provisions a replacement")

	rv := view.Rooms[rooms[0].ID()]
	assert.Equal(t, []string{m.ID()}, rv.MemberIDs)
	assert.Equal(t, 1, rv.MemberCount)
	assert.True(t, rv.IsOpen)
	assert.False(t, view.Rooms[rooms[1].ID()].IsOpen)

	mv := NewMemberView(m)
	assert.Equal(t, "ada", mv.Name)
	assert.Equal(t, m.ID(), mv.ID)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"rooms":{`)
}

func TestViews_ExposeOnlyPublicFields(t *testing.T) {
	s := notify.NewScheduler(nil)
	f := domain.NewFactory(s)

	l, err := f.NewLobby(domain.LobbyOptions{
		MinOpenRooms: domain.Int(0),
		Attributes:   map[string]any{"region": "eu"},
	})
	require.NoError(t, err)

	var opts domain.RoomOptions
	require.NoError(t, json.Unmarshal([]byte(`{"memberCap":2,"secret":"x"}`), &opts))
	room, err := l.CreateRoom(opts)
	require.NoError(t, err)
	s.Flush()

	m, err := f.NewMember(domain.MemberOptions{
		Name:       domain.String("ada"),
		Attributes: map[string]any{"token": "hidden"},
	})
	require.NoError(t, err)
	require.NoError(t, room.AddMember(m))

	assert.Equal(t, []string{"id", "name"}, jsonKeys(t, NewMemberView(m)))
	assert.Equal(t,
		[]string{"id", "isOpen", "memberCap", "memberCount", "memberIds", "name"},
		jsonKeys(t, NewRoomView(room)),
	)
	assert.Equal(t, []string{"id", "name", "rooms"}, jsonKeys(t, NewLobbyView(l)))

	raw, err := json.Marshal(NewLobbyView(l))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "region")
}
