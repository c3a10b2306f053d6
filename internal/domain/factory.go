package domain

import (
	"fmt"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hilthontt/lobby/internal/infrastructure/notify"
)

type memberConfig struct {
	Name string `json:"name" validate:"min=1,max=255"`
}

type roomConfig struct {
	Name               string `json:"name" validate:"min=1,max=255"`
	SoftMemberCap      int    `json:"softMemberCap" validate:"min=0,max=10"`
	MemberCap          int    `json:"memberCap" validate:"min=0,max=50"`
	IsOpen             bool   `json:"isOpen"`
	CloseOnFull        bool   `json:"closeOnFull"`
	EndOnCloseAndEmpty bool   `json:"endOnCloseAndEmpty"`
	OpenWhenNotFull    bool   `json:"openWhenNotFull"`
}

type lobbyConfig struct {
	Name         string `json:"name" validate:"min=1,max=255"`
	MinOpenRooms int    `json:"minOpenRooms" validate:"min=0,max=255"`
	MaxRooms     int    `json:"maxRooms" validate:"min=0,max=255"`
}

// Factory builds Members, Rooms and Lobbies that share one notification
// scheduler. It owns the per-kind counters used for default names.
type Factory struct {
	scheduler *notify.Scheduler
	validate  *validator.Validate

	memberSeq atomic.Uint64
	roomSeq   atomic.Uint64
	lobbySeq  atomic.Uint64
}

func NewFactory(scheduler *notify.Scheduler) *Factory {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Factory{
		scheduler: scheduler,
		validate:  v,
	}
}

func (f *Factory) Scheduler() *notify.Scheduler {
	return f.scheduler
}

func (f *Factory) NewMember(opts MemberOptions) (*Member, error) {
	seq := f.memberSeq.Add(1)

	cfg := memberConfig{
		Name: valueOr(opts.Name, fmt.Sprintf("Member %d", seq)),
	}
	if err := f.validate.Struct(cfg); err != nil {
		return nil, &ConfigError{Entity: "member", Err: err}
	}

	return newMember(f, uuid.NewString(), cfg, cleanAttributes(opts.Attributes)), nil
}

func (f *Factory) NewRoom(opts RoomOptions) (*Room, error) {
	seq := f.roomSeq.Add(1)

	cfg := resolveRoomConfig(opts, fmt.Sprintf("Room %d", seq))
	if err := f.validate.Struct(cfg); err != nil {
		return nil, &ConfigError{Entity: "room", Err: err}
	}

	return newRoom(f, uuid.NewString(), cfg, cleanAttributes(opts.Attributes)), nil
}

// NewLobby validates opts and returns a lobby whose first provisioning pass
// is deferred to the scheduler, so subscribers attached right after
// construction observe it.
func (f *Factory) NewLobby(opts LobbyOptions) (*Lobby, error) {
	seq := f.lobbySeq.Add(1)

	cfg := lobbyConfig{
		Name:         valueOr(opts.Name, fmt.Sprintf("Lobby %d", seq)),
		MinOpenRooms: valueOr(opts.MinOpenRooms, DefaultMinOpenRooms),
		MaxRooms:     valueOr(opts.MaxRooms, DefaultMaxRooms),
	}
	if err := f.validate.Struct(cfg); err != nil {
		return nil, &ConfigError{Entity: "lobby", Err: err}
	}

	// the template is checked up front so provisioning cannot fail on it later
	template := resolveRoomConfig(opts.RoomOptions, "template")
	if err := f.validate.Struct(template); err != nil {
		return nil, &ConfigError{Entity: "lobby roomOptions", Err: err}
	}

	l := newLobby(f, uuid.NewString(), cfg, opts.RoomOptions, cleanAttributes(opts.Attributes))
	f.scheduler.Defer(l.provision)
	return l, nil
}

func (f *Factory) validateVar(entity string, value any, tag string) error {
	if err := f.validate.Var(value, tag); err != nil {
		return &ConfigError{Entity: entity, Err: err}
	}
	return nil
}

func resolveRoomConfig(opts RoomOptions, defaultName string) roomConfig {
	return roomConfig{
		Name:               valueOr(opts.Name, defaultName),
		SoftMemberCap:      valueOr(opts.SoftMemberCap, 0),
		MemberCap:          valueOr(opts.MemberCap, DefaultMemberCap),
		IsOpen:             valueOr(opts.IsOpen, true),
		CloseOnFull:        valueOr(opts.CloseOnFull, false),
		EndOnCloseAndEmpty: valueOr(opts.EndOnCloseAndEmpty, false),
		OpenWhenNotFull:    valueOr(opts.OpenWhenNotFull, false),
	}
}
