package domain

import (
	"maps"
	"slices"
	"sync"

	"github.com/hilthontt/lobby/internal/infrastructure/notify"
)

type RoomState string

const (
	RoomOpen   RoomState = "open"
	RoomClosed RoomState = "closed"
	RoomEnded  RoomState = "ended"
)

// Room is a bounded-capacity session with an open/closed/ended lifecycle.
// State changes commit before the mutating call returns; notifications about
// them are delivered later by the scheduler, in the order they were raised.
type Room struct {
	id         string
	attributes map[string]any
	factory    *Factory
	events     *notify.Emitter[RoomEvent]

	closeOnFull        bool
	endOnCloseAndEmpty bool
	openWhenNotFull    bool

	mu            sync.RWMutex
	name          string
	softMemberCap int
	memberCap     int
	isOpen        bool
	hasEnded      bool
	members       map[string]Participant
}

func newRoom(f *Factory, id string, cfg roomConfig, attrs map[string]any) *Room {
	return &Room{
		id:                 id,
		attributes:         attrs,
		factory:            f,
		events:             notify.NewEmitter[RoomEvent](f.scheduler),
		closeOnFull:        cfg.CloseOnFull,
		endOnCloseAndEmpty: cfg.EndOnCloseAndEmpty,
		openWhenNotFull:    cfg.OpenWhenNotFull,
		name:               cfg.Name,
		softMemberCap:      cfg.SoftMemberCap,
		memberCap:          cfg.MemberCap,
		isOpen:             cfg.IsOpen,
		members:            make(map[string]Participant),
	}
}

func (r *Room) ID() string {
	return r.id
}

func (r *Room) Name() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.name
}

func (r *Room) IsOpen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isOpen
}

func (r *Room) HasEnded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasEnded
}

func (r *Room) State() RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch {
	case r.hasEnded:
		return RoomEnded
	case r.isOpen:
		return RoomOpen
	default:
		return RoomClosed
	}
}

func (r *Room) SoftMemberCap() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.softMemberCap
}

func (r *Room) MemberCap() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.memberCap
}

func (r *Room) CloseOnFull() bool        { return r.closeOnFull }
func (r *Room) EndOnCloseAndEmpty() bool { return r.endOnCloseAndEmpty }
func (r *Room) OpenWhenNotFull() bool    { return r.openWhenNotFull }

func (r *Room) Attributes() map[string]any {
	return maps.Clone(r.attributes)
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Members returns a snapshot of the current members ordered by id.
func (r *Room) Members() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Participant, 0, len(r.members))
	for _, id := range slices.Sorted(maps.Keys(r.members)) {
		out = append(out, r.members[id])
	}
	return out
}

func (r *Room) MemberIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.members))
}

func (r *Room) Member(id string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.members[id]
	return p, ok
}

func (r *Room) HasMember(id string) bool {
	_, ok := r.Member(id)
	return ok
}

func (r *Room) On(event string, fn func(RoomEvent)) notify.Subscription {
	return r.events.On(event, fn)
}

func (r *Room) Once(event string, fn func(RoomEvent)) notify.Subscription {
	return r.events.Once(event, fn)
}

func (r *Room) Off(sub notify.Subscription) bool {
	return r.events.Off(sub)
}

// Rename replaces the display name. An invalid name is rejected, reported on
// the error notification, and the previous name is kept.
func (r *Room) Rename(name string) error {
	if err := r.factory.validateVar("room", name, "min=1,max=255"); err != nil {
		r.emit(EventError, nil, err)
		return err
	}

	r.mu.Lock()
	r.name = name
	r.mu.Unlock()
	return nil
}

// SetSoftMemberCap changes the soft threshold. It only affects later
// crossings; no notification fires for the current count.
func (r *Room) SetSoftMemberCap(n int) error {
	if err := r.factory.validateVar("room", n, "min=0,max=10"); err != nil {
		r.emit(EventError, nil, err)
		return err
	}

	r.mu.Lock()
	r.softMemberCap = n
	r.mu.Unlock()
	return nil
}

// SetMemberCap changes the hard capacity. A cap below the current member
// count is rejected.
func (r *Room) SetMemberCap(n int) error {
	if err := r.factory.validateVar("room", n, "min=0,max=50"); err != nil {
		r.emit(EventError, nil, err)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if n > 0 && n < len(r.members) {
		err := &ConfigError{Entity: "room", Err: ErrRoomFull}
		r.emit(EventError, nil, err)
		return err
	}
	r.memberCap = n
	return nil
}

func (r *Room) Open() *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openLocked()
	return r
}

func (r *Room) Close() *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeLocked()
	return r
}

// End terminates the room: every member is evicted, then end is emitted.
// Calling End on an ended room does nothing.
func (r *Room) End() *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endLocked()
	return r
}

// AddMember admits candidate. The rejection reasons are checked in a fixed
// order: ErrWrongType, ErrAlreadyInRoom, ErrRoomClosed (ErrRoomEnded once the
// room has ended), ErrRoomFull. A rejected call changes nothing.
func (r *Room) AddMember(candidate any) error {
	p, ok := candidate.(Participant)
	if !ok {
		return ErrWrongType
	}
	m := p.membership()
	if m == nil {
		return ErrWrongType
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[m.id]; exists {
		return ErrAlreadyInRoom
	}
	if r.hasEnded {
		return ErrRoomEnded
	}
	if !r.isOpen {
		return ErrRoomClosed
	}
	if r.memberCap > 0 && len(r.members)+1 > r.memberCap {
		return ErrRoomFull
	}

	r.members[m.id] = p
	r.emit(EventMemberAdd, p, nil)
	m.attach(r)

	count := len(r.members)
	if r.softMemberCap > 0 && count == r.softMemberCap {
		r.emit(EventSoftFull, nil, nil)
	}
	if r.memberCap > 0 && count == r.memberCap {
		r.emit(EventFull, nil, nil)
		if r.closeOnFull {
			r.closeLocked()
		}
	}

	return nil
}

// RemoveMember evicts a member given either the member itself or its id.
// Any other argument yields ErrMalformedMember; an absent member yields
// ErrMemberNotFound.
func (r *Room) RemoveMember(target any) error {
	var id string
	switch v := target.(type) {
	case string:
		id = v
	case Participant:
		m := v.membership()
		if m == nil {
			return ErrMalformedMember
		}
		id = m.id
	default:
		return ErrMalformedMember
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[id]; !ok {
		return ErrMemberNotFound
	}
	r.removeLocked(id)
	return nil
}

func (r *Room) openLocked() {
	if r.hasEnded || r.isOpen {
		return
	}
	r.isOpen = true
	r.emit(EventOpen, nil, nil)
}

func (r *Room) closeLocked() {
	if r.hasEnded || !r.isOpen {
		return
	}
	r.isOpen = false
	r.emit(EventClose, nil, nil)
}

func (r *Room) endLocked() {
	if r.hasEnded {
		return
	}
	r.hasEnded = true
	r.isOpen = false

	for _, id := range slices.Sorted(maps.Keys(r.members)) {
		r.removeLocked(id)
	}

	r.emit(EventEnd, nil, nil)
}

func (r *Room) removeLocked(id string) {
	p := r.members[id]
	delete(r.members, id)

	r.emit(EventMemberRemove, p, nil)
	p.membership().detach(r)

	count := len(r.members)
	if !r.isOpen && r.openWhenNotFull && count < r.memberCap {
		r.openLocked()
	}
	if r.endOnCloseAndEmpty && !r.isOpen && count == 0 {
		r.endLocked()
	}
}

func (r *Room) emit(event string, member Participant, err error) {
	r.events.Emit(event, RoomEvent{Room: r, Member: member, Err: err})
}
