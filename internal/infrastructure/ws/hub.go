package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/contracts"
	"github.com/hilthontt/lobby/internal/infrastructure/logging"
)

// Hub serves the lobby over websockets: it answers name, join_room and
// leave_room requests and pushes lobby_change to every client whenever the
// lobby's supply of rooms changes.
type Hub struct {
	lobby   *domain.Lobby
	factory *domain.Factory
	members domain.MemberRepository
	logger  logging.Logger

	upgrader   websocket.Upgrader
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *WSMessage
	done       chan struct{}
}

func NewHub(
	lobby *domain.Lobby,
	factory *domain.Factory,
	members domain.MemberRepository,
	allowedOrigins []string,
	logger logging.Logger,
) *Hub {
	return &Hub{
		lobby:   lobby,
		factory: factory,
		members: members,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *WSMessage, 256),
		done:       make(chan struct{}),
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
	}
}

// Observe pushes lobby_change whenever l adds, opens, closes or ends a room.
func (h *Hub) Observe(l *domain.Lobby) {
	for _, event := range []string{
		domain.EventRoomAdd, domain.EventRoomOpen,
		domain.EventRoomClose, domain.EventRoomEnd,
	} {
		l.On(event, func(domain.LobbyEvent) { h.NotifyLobbyChange() })
	}
}

// Run owns the client set until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for cl := range h.clients {
				delete(h.clients, cl)
				cl.close()
			}
			return

		case cl := <-h.register:
			h.clients[cl] = struct{}{}
			h.logger.Debug(logging.WebSocket, logging.Connect, "client connected", map[logging.ExtraKey]any{"ClientId": cl.ID})

		case cl := <-h.unregister:
			if _, ok := h.clients[cl]; ok {
				delete(h.clients, cl)
				cl.close()
			}
			h.disconnect(cl)

		case msg := <-h.broadcast:
			for cl := range h.clients {
				cl.send(msg, h.logger)
			}
		}
	}
}

func (h *Hub) Register() chan<- *Client {
	return h.register
}

func (h *Hub) Unregister() chan<- *Client {
	return h.unregister
}

// NotifyLobbyChange queues a lobby_change for every client. It never blocks:
// when the hub is backed up the update is dropped and the next one carries
// the newer state anyway.
func (h *Hub) NotifyLobbyChange() {
	select {
	case h.broadcast <- NewLobbyChange(contracts.NewLobbyView(h.lobby)):
	default:
		h.logger.Warn(logging.WebSocket, logging.Notification, "broadcast queue full, dropping lobby_change", nil)
	}
}

// ServeWS upgrades the request and attaches a new client to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(logging.WebSocket, logging.Connect, "websocket upgrade failed", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	cl := NewClient(conn)
	select {
	case h.Register() <- cl:
	case <-h.done:
		_ = conn.Close()
		return
	}

	// upon connection the client gets the current lobby state
	cl.send(NewLobbyChange(contracts.NewLobbyView(h.lobby)), h.logger)

	go cl.WriteMessage()
	go cl.ReadMessage(h)
}

func (h *Hub) handle(cl *Client, req Request) {
	switch req.Event {
	case NameEvent:
		h.handleName(cl, req)
	case JoinRoomEvent:
		h.handleRoom(cl, req, func(room *domain.Room, m *domain.Member) error { return room.AddMember(m) })
	case LeaveRoomEvent:
		h.handleRoom(cl, req, func(room *domain.Room, m *domain.Member) error { return room.RemoveMember(m) })
	default:
		cl.send(NewReply(req, errUnknownEvent, nil), h.logger)
	}
}

func (h *Hub) handleName(cl *Client, req Request) {
	if m := cl.Member(); m != nil {
		cl.send(NewReply(req, "", contracts.NewMemberView(m)), h.logger)
		return
	}

	var name string
	if err := json.Unmarshal(req.Data, &name); err != nil {
		cl.send(NewReply(req, errBadRequest, nil), h.logger)
		return
	}

	m, err := h.factory.NewMember(domain.MemberOptions{Name: &name})
	if err != nil {
		cl.send(NewReply(req, err.Error(), nil), h.logger)
		return
	}

	m, created := cl.setMember(m)
	if created {
		ctx := context.Background()
		err := h.members.Create(ctx, m)
		if err == nil {
			err = h.members.Hold(ctx, m.ID())
		}
		if err != nil {
			h.logger.Error(logging.Member, logging.Request, "failed to store member", map[logging.ExtraKey]any{
				logging.MemberID:     m.ID(),
				logging.ErrorMessage: err.Error(),
			})
		}
		h.logger.Info(logging.Member, logging.Request, "member created", map[logging.ExtraKey]any{
			logging.MemberID: m.ID(),
			"ClientId":       cl.ID,
		})
	}

	cl.send(NewReply(req, "", contracts.NewMemberView(m)), h.logger)
}

func (h *Hub) handleRoom(cl *Client, req Request, apply func(*domain.Room, *domain.Member) error) {
	m := cl.Member()
	if m == nil {
		cl.send(NewReply(req, errNotAMember, nil), h.logger)
		return
	}

	var body RoomRequest
	if err := json.Unmarshal(req.Data, &body); err != nil {
		cl.send(NewReply(req, errBadRequest, nil), h.logger)
		return
	}

	room, ok := h.lobby.Room(body.ID)
	if !ok {
		cl.send(NewReply(req, errInvalidRoom, nil), h.logger)
		return
	}

	if err := apply(room, m); err != nil {
		cl.send(NewReply(req, err.Error(), nil), h.logger)
		return
	}

	cl.send(NewReply(req, "", true), h.logger)
	h.NotifyLobbyChange()
}

// disconnect takes the client's member out of every room and forgets it.
func (h *Hub) disconnect(cl *Client) {
	m := cl.Member()
	if m == nil {
		return
	}

	for _, room := range m.Rooms() {
		if err := room.RemoveMember(m); err != nil && !errors.Is(err, domain.ErrMemberNotFound) {
			h.logger.Warn(logging.WebSocket, logging.Disconnect, "failed to remove member from room", map[logging.ExtraKey]any{
				logging.MemberID:     m.ID(),
				logging.RoomID:       room.ID(),
				logging.ErrorMessage: err.Error(),
			})
		}
	}
	_, _ = h.members.Delete(context.Background(), m.ID())

	h.logger.Info(logging.WebSocket, logging.Disconnect, "member disconnected", map[logging.ExtraKey]any{
		logging.MemberID: m.ID(),
		"ClientId":       cl.ID,
	})

	h.NotifyLobbyChange()
}
