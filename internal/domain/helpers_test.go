package domain_test

import (
	"testing"

	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/notify"
	"github.com/stretchr/testify/require"
)

func newFactory(t *testing.T) (*domain.Factory, *notify.Scheduler) {
	t.Helper()
	scheduler := notify.NewScheduler(func(recovered any) {
		t.Fatalf("notification handler panicked: %v", recovered)
	})
	return domain.NewFactory(scheduler), scheduler
}

func newMember(t *testing.T, f *domain.Factory) *domain.Member {
	t.Helper()
	m, err := f.NewMember(domain.MemberOptions{})
	require.NoError(t, err)
	return m
}

func newRoom(t *testing.T, f *domain.Factory, opts domain.RoomOptions) *domain.Room {
	t.Helper()
	r, err := f.NewRoom(opts)
	require.NoError(t, err)
	return r
}

// recordRoom subscribes to every room notification and appends its name to
// the returned slice as it is delivered.
func recordRoom(room *domain.Room) *[]string {
	var got []string
	for _, ev := range []string{
		domain.EventOpen, domain.EventClose, domain.EventEnd,
		domain.EventMemberAdd, domain.EventMemberRemove,
		domain.EventSoftFull, domain.EventFull, domain.EventError,
	} {
		name := ev
		room.On(name, func(domain.RoomEvent) { got = append(got, name) })
	}
	return &got
}

func recordLobby(l *domain.Lobby) *[]string {
	var got []string
	for _, ev := range []string{
		domain.EventRoomAdd, domain.EventRoomOpen, domain.EventRoomClose,
		domain.EventRoomEnd, domain.EventError,
	} {
		name := ev
		l.On(name, func(domain.LobbyEvent) { got = append(got, name) })
	}
	return &got
}

func count(events []string, name string) int {
	n := 0
	for _, e := range events {
		if e == name {
			n++
		}
	}
	return n
}

// player is a caller-defined participant built on top of Member.
type player struct {
	*domain.Member
	Rating int
}
