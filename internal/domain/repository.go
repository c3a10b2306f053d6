package domain

import "context"

// MemberRepository keeps the members a service hands out so later requests
// can find them again by id.
type MemberRepository interface {
	Create(ctx context.Context, member *Member) error
	GetByID(ctx context.Context, id string) (*Member, error)
	Delete(ctx context.Context, id string) (*Member, error)
	List(ctx context.Context) ([]*Member, error)
	Count() int
	// Hold pins a member owned by a live connection against expiry.
	Hold(ctx context.Context, id string) error
	Release(ctx context.Context, id string)
}
