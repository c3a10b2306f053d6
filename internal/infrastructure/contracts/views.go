package contracts

import "github.com/hilthontt/lobby/internal/domain"

// MemberView is what other clients learn about a member. Attributes stay
// server side.
type MemberView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoomView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	MemberIDs   []string `json:"memberIds"`
	MemberCount int      `json:"memberCount"`
	MemberCap   int      `json:"memberCap"`
	IsOpen      bool     `json:"isOpen"`
}

// LobbyView keys rooms by id, the shape lobby_change clients expect.
type LobbyView struct {
	ID    string              `json:"id"`
	Name  string              `json:"name"`
	Rooms map[string]RoomView `json:"rooms"`
}

func NewMemberView(m *domain.Member) MemberView {
	return MemberView{
		ID:   m.ID(),
		Name: m.Name(),
	}
}

func NewRoomView(r *domain.Room) RoomView {
	ids := r.MemberIDs()
	return RoomView{
		ID:          r.ID(),
		Name:        r.Name(),
		MemberIDs:   ids,
		MemberCount: len(ids),
		MemberCap:   r.MemberCap(),
		IsOpen:      r.IsOpen(),
	}
}

func NewLobbyView(l *domain.Lobby) LobbyView {
	rooms := l.Rooms()
	view := LobbyView{
		ID:    l.ID(),
		Name:  l.Name(),
		Rooms: make(map[string]RoomView, len(rooms)),
	}

	for _, r := range rooms {
		view.Rooms[r.ID()] = NewRoomView(r)
	}

	return view
}
