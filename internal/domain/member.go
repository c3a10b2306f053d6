package domain

import (
	"maps"
	"slices"
	"sync"

	"github.com/hilthontt/lobby/internal/infrastructure/notify"
)

// Participant is anything that can be admitted to a Room. Only *Member
// implements it directly; types embedding *Member inherit it.
type Participant interface {
	ID() string
	Name() string
	membership() *Member
}

// Member is a participant identity plus the inverse index of the rooms it
// belongs to. The index is maintained only by Room.
type Member struct {
	id         string
	attributes map[string]any
	factory    *Factory
	events     *notify.Emitter[MemberEvent]

	mu    sync.RWMutex
	name  string
	rooms map[string]*Room
}

func newMember(f *Factory, id string, cfg memberConfig, attrs map[string]any) *Member {
	return &Member{
		id:         id,
		attributes: attrs,
		factory:    f,
		events:     notify.NewEmitter[MemberEvent](f.scheduler),
		name:       cfg.Name,
		rooms:      make(map[string]*Room),
	}
}

func (m *Member) ID() string {
	return m.id
}

func (m *Member) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.name
}

// Rename replaces the display name. An invalid name is rejected, reported on
// the error notification, and the previous name is kept.
func (m *Member) Rename(name string) error {
	if err := m.factory.validateVar("member", name, "min=1,max=255"); err != nil {
		m.events.Emit(EventError, MemberEvent{Member: m, Err: err})
		return err
	}

	m.mu.Lock()
	m.name = name
	m.mu.Unlock()
	return nil
}

func (m *Member) Attributes() map[string]any {
	return maps.Clone(m.attributes)
}

// Rooms returns a snapshot of the rooms the member currently belongs to.
func (m *Member) Rooms() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Room, 0, len(m.rooms))
	for _, id := range slices.Sorted(maps.Keys(m.rooms)) {
		out = append(out, m.rooms[id])
	}
	return out
}

func (m *Member) RoomIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.rooms))
}

func (m *Member) InRoom(roomID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[roomID]
	return ok
}

func (m *Member) On(event string, fn func(MemberEvent)) notify.Subscription {
	return m.events.On(event, fn)
}

func (m *Member) Once(event string, fn func(MemberEvent)) notify.Subscription {
	return m.events.Once(event, fn)
}

func (m *Member) Off(sub notify.Subscription) bool {
	return m.events.Off(sub)
}

func (m *Member) membership() *Member {
	return m
}

func (m *Member) attach(r *Room) {
	m.mu.Lock()
	m.rooms[r.id] = r
	m.mu.Unlock()

	m.events.Emit(EventRoomJoin, MemberEvent{Member: m, Room: r})
}

func (m *Member) detach(r *Room) {
	m.mu.Lock()
	delete(m.rooms, r.id)
	m.mu.Unlock()

	m.events.Emit(EventRoomLeave, MemberEvent{Member: m, Room: r})
}
