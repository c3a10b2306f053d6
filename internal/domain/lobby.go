package domain

import (
	"maps"
	"slices"
	"sync"

	"github.com/hilthontt/lobby/internal/infrastructure/notify"
)

// Lobby keeps a supply of open rooms: at least minOpenRooms open at a time,
// never more than maxRooms in total. It only ever adds rooms; rooms leave the
// lobby when they end.
type Lobby struct {
	id         string
	attributes map[string]any
	factory    *Factory
	events     *notify.Emitter[LobbyEvent]

	mu           sync.Mutex
	name         string
	minOpenRooms int
	maxRooms     int
	roomOptions  RoomOptions
	rooms        map[string]*Room
	subs         map[string][]notify.Subscription
}

func newLobby(f *Factory, id string, cfg lobbyConfig, roomOptions RoomOptions, attrs map[string]any) *Lobby {
	return &Lobby{
		id:           id,
		attributes:   attrs,
		factory:      f,
		events:       notify.NewEmitter[LobbyEvent](f.scheduler),
		name:         cfg.Name,
		minOpenRooms: cfg.MinOpenRooms,
		maxRooms:     cfg.MaxRooms,
		roomOptions:  roomOptions,
		rooms:        make(map[string]*Room),
		subs:         make(map[string][]notify.Subscription),
	}
}

func (l *Lobby) ID() string {
	return l.id
}

func (l *Lobby) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name
}

func (l *Lobby) MinOpenRooms() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.minOpenRooms
}

func (l *Lobby) MaxRooms() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxRooms
}

// RoomOptions returns the template applied to rooms the lobby creates.
func (l *Lobby) RoomOptions() RoomOptions {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.roomOptions
	out.Attributes = maps.Clone(out.Attributes)
	return out
}

func (l *Lobby) Attributes() map[string]any {
	return maps.Clone(l.attributes)
}

// Rooms returns a snapshot of every room, ordered by id.
func (l *Lobby) Rooms() []*Room {
	return l.filterRooms(func(*Room) bool { return true })
}

func (l *Lobby) OpenRooms() []*Room {
	return l.filterRooms(func(r *Room) bool { return r.IsOpen() })
}

func (l *Lobby) ClosedRooms() []*Room {
	return l.filterRooms(func(r *Room) bool { return !r.IsOpen() })
}

func (l *Lobby) Room(id string) (*Room, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.rooms[id]
	return r, ok
}

func (l *Lobby) RoomCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rooms)
}

func (l *Lobby) On(event string, fn func(LobbyEvent)) notify.Subscription {
	return l.events.On(event, fn)
}

func (l *Lobby) Once(event string, fn func(LobbyEvent)) notify.Subscription {
	return l.events.Once(event, fn)
}

func (l *Lobby) Off(sub notify.Subscription) bool {
	return l.events.Off(sub)
}

func (l *Lobby) Rename(name string) error {
	if err := l.factory.validateVar("lobby", name, "min=1,max=255"); err != nil {
		l.emit(EventError, nil, err)
		return err
	}

	l.mu.Lock()
	l.name = name
	l.mu.Unlock()
	return nil
}

// SetMinOpenRooms changes the open-room target and provisions against it
// right away. Lowering it never closes rooms.
func (l *Lobby) SetMinOpenRooms(n int) error {
	if err := l.factory.validateVar("lobby", n, "min=0,max=255"); err != nil {
		l.emit(EventError, nil, err)
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.minOpenRooms = n
	l.ensureOpenRoomsLocked()
	return nil
}

// SetMaxRooms changes the room ceiling. Rooms already above a lowered ceiling
// are left alone; the lobby simply stops creating rooms until it drops below.
func (l *Lobby) SetMaxRooms(n int) error {
	if err := l.factory.validateVar("lobby", n, "min=0,max=255"); err != nil {
		l.emit(EventError, nil, err)
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxRooms = n
	l.ensureOpenRoomsLocked()
	return nil
}

// CreateRoom builds a room from the lobby template with overrides applied key
// by key, registers it and announces it. It fails with ErrTooManyRooms when
// the room ceiling has been reached.
func (l *Lobby) CreateRoom(overrides RoomOptions) (*Room, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createRoomLocked(overrides)
}

func (l *Lobby) createRoomLocked(overrides RoomOptions) (*Room, error) {
	if l.maxRooms > 0 && len(l.rooms) >= l.maxRooms {
		return nil, ErrTooManyRooms
	}

	room, err := l.factory.NewRoom(l.roomOptions.Merge(overrides))
	if err != nil {
		return nil, err
	}

	l.rooms[room.id] = room
	l.subs[room.id] = []notify.Subscription{
		room.On(EventClose, l.handleRoomClose),
		room.On(EventOpen, l.handleRoomOpen),
		room.Once(EventEnd, l.handleRoomEnd),
	}

	l.emit(EventRoomAdd, room, nil)
	if room.IsOpen() {
		l.emit(EventRoomOpen, room, nil)
	}

	return room, nil
}

func (l *Lobby) provision() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureOpenRoomsLocked()
}

func (l *Lobby) ensureOpenRoomsLocked() {
	if l.minOpenRooms <= 0 {
		return
	}

	open := 0
	for _, r := range l.rooms {
		if r.IsOpen() {
			open++
		}
	}

	deficit := max(0, l.minOpenRooms-open)
	if l.maxRooms > 0 {
		deficit = min(deficit, max(0, l.maxRooms-len(l.rooms)))
	}

	for range deficit {
		if _, err := l.createRoomLocked(RoomOptions{}); err != nil {
			l.emit(EventError, nil, err)
			return
		}
	}
}

func (l *Lobby) handleRoomClose(ev RoomEvent) {
	l.emit(EventRoomClose, ev.Room, nil)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureOpenRoomsLocked()
}

func (l *Lobby) handleRoomOpen(ev RoomEvent) {
	l.emit(EventRoomOpen, ev.Room, nil)
}

func (l *Lobby) handleRoomEnd(ev RoomEvent) {
	l.emit(EventRoomEnd, ev.Room, nil)

	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.rooms, ev.Room.id)
	for _, sub := range l.subs[ev.Room.id] {
		ev.Room.Off(sub)
	}
	delete(l.subs, ev.Room.id)

	l.ensureOpenRoomsLocked()
}

func (l *Lobby) filterRooms(keep func(*Room) bool) []*Room {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*Room, 0, len(l.rooms))
	for _, id := range slices.Sorted(maps.Keys(l.rooms)) {
		if r := l.rooms[id]; keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (l *Lobby) emit(event string, room *Room, err error) {
	l.events.Emit(event, LobbyEvent{Lobby: l, Room: room, Err: err})
}
