package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/logging"
)

type MemberRepository struct {
	members          map[string]*domain.Member // ID -> Member
	lastAccess       map[string]time.Time      // ID -> last access time
	held             map[string]struct{}       // owned by a live connection
	onEvict          []func(*domain.Member)
	capacity         uint
	idleMemberExpiry time.Duration
	logger           logging.Logger
	now              func() time.Time
	mu               *sync.RWMutex
}

var _ domain.MemberRepository = (*MemberRepository)(nil)

// NewMemberRepository returns an in-memory store bounded by capacity.
// Members idle longer than idleMemberExpiry, or the least recently used ones
// past capacity, are evicted and leave every room they sit in. Held members
// are never evicted.
func NewMemberRepository(capacity uint, idleMemberExpiry time.Duration, logger logging.Logger) *MemberRepository {
	if capacity == 0 {
		capacity = 1000
	}
	if idleMemberExpiry == 0 {
		idleMemberExpiry = time.Hour
	}

	return &MemberRepository{
		members:          make(map[string]*domain.Member),
		lastAccess:       make(map[string]time.Time),
		held:             make(map[string]struct{}),
		capacity:         capacity,
		idleMemberExpiry: idleMemberExpiry,
		logger:           logger,
		now:              time.Now,
		mu:               &sync.RWMutex{},
	}
}

func (r *MemberRepository) touch(memberID string) {
	r.lastAccess[memberID] = r.now()
}

func (r *MemberRepository) evict(id, reason string) {
	member, exists := r.members[id]
	delete(r.members, id)
	delete(r.lastAccess, id)
	delete(r.held, id)
	if !exists {
		return
	}

	for _, room := range member.Rooms() {
		_ = room.RemoveMember(member)
	}

	r.logger.Info(logging.Member, logging.Eviction, "member evicted", map[logging.ExtraKey]any{
		logging.MemberID: id,
		"Reason":         reason,
	})

	for _, fn := range r.onEvict {
		fn(member)
	}
}

func (r *MemberRepository) evictIdle() {
	cutoff := r.now().Add(-r.idleMemberExpiry)
	for id, last := range r.lastAccess {
		if _, ok := r.held[id]; ok {
			continue
		}
		if last.Before(cutoff) {
			r.evict(id, "idle")
		}
	}
}

// enforceCapacity drops least recently used members until one more fits.
// Held members are skipped, so the store may grow past capacity when every
// member is connected.
func (r *MemberRepository) enforceCapacity() {
	over := len(r.members) - int(r.capacity) + 1
	if over <= 0 {
		return
	}

	ids := make([]string, 0, len(r.lastAccess))
	for id := range r.lastAccess {
		if _, ok := r.held[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, func(a, b string) int {
		return r.lastAccess[a].Compare(r.lastAccess[b])
	})

	for _, id := range ids[:min(over, len(ids))] {
		r.evict(id, "capacity")
	}
}

// OnEvict registers fn to run after a member is evicted or deleted. It runs
// with the store locked and must not call back into it.
func (r *MemberRepository) OnEvict(fn func(*domain.Member)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvict = append(r.onEvict, fn)
}

// Hold keeps a member out of idle and capacity eviction until Release or
// Delete. Connections hold the member they own.
func (r *MemberRepository) Hold(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.members[id]; !exists {
		return domain.ErrMemberNotFound
	}
	r.held[id] = struct{}{}
	r.touch(id)
	return nil
}

// Release makes a held member evictable again, starting its idle clock now.
func (r *MemberRepository) Release(ctx context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.held[id]; !ok {
		return
	}
	delete(r.held, id)
	r.touch(id)
}

// Create adds a member if its ID is unique, making room when at capacity.
func (r *MemberRepository) Create(ctx context.Context, member *domain.Member) error {
	if member == nil || member.ID() == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Clean up idle members first
	r.evictIdle()

	if _, exists := r.members[member.ID()]; exists {
		return domain.ErrMemberAlreadyExists
	}

	r.enforceCapacity()

	r.members[member.ID()] = member
	r.touch(member.ID())

	return nil
}

// GetByID returns a member and updates access time.
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	member, exists := r.members[id]
	if !exists {
		return nil, domain.ErrMemberNotFound
	}

	r.touch(id)
	return member, nil
}

// Delete removes a member and takes it out of its rooms.
func (r *MemberRepository) Delete(ctx context.Context, id string) (*domain.Member, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	member, exists := r.members[id]
	if !exists {
		return nil, domain.ErrMemberNotFound
	}

	r.evict(id, "deleted")
	return member, nil
}

// List returns live members ordered by id.
func (r *MemberRepository) List(ctx context.Context) ([]*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictIdle()

	out := make([]*domain.Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *domain.Member) int {
		return strings.Compare(a.ID(), b.ID())
	})
	return out, nil
}

func (r *MemberRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// RunJanitor evicts idle members every interval until ctx is done.
func (r *MemberRepository) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			r.evictIdle()
			r.mu.Unlock()
		}
	}
}
