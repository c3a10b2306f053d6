package apisdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hilthontt/lobby/api-sdk/internal/requestconfig"
	"github.com/hilthontt/lobby/api-sdk/option"
)

const (
	NameEvent      = "name"
	JoinRoomEvent  = "join_room"
	LeaveRoomEvent = "leave_room"

	ReplyEvent       = "reply"
	LobbyChangeEvent = "lobby_change"
)

type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type wsRequest struct {
	Event    string `json:"event"`
	Data     any    `json:"data"`
	Callback string `json:"callback"`
}

type wsReply struct {
	Error    *string         `json:"error"`
	Data     json.RawMessage `json:"data"`
	Callback string          `json:"callback"`
}

// ReplyError is a request the server answered with an error text.
type ReplyError struct {
	Event   string
	Message string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Event, e.Message)
}

// LobbyWebSocket is a live connection to the lobby hub. Frames are read in the
// background from the moment it is connected until Close.
type LobbyWebSocket struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	mu      sync.RWMutex
	closed  bool
	err     error
	done    chan struct{}

	callbacks    uint64
	pending      map[string]chan wsReply
	lobbyHandler func(Lobby)
	errorHandler func(error)
}

// ConnectWebSocket dials the hub next to the client's base URL: a base of
// http://host/api/ connects to ws://host/ws.
func (c *Client) ConnectWebSocket(ctx context.Context, opts ...option.RequestOption) (*LobbyWebSocket, error) {
	opts = append(c.Options, opts...)

	cfg, err := requestconfig.NewRequestConfig(ctx, http.MethodGet, "/ws", nil, nil, opts...)
	if err != nil {
		return nil, err
	}

	wsURL := *cfg.Request.URL
	wsURL.Path = "/ws"
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to websocket: %w", err)
	}

	ws := &LobbyWebSocket{
		conn:    conn,
		done:    make(chan struct{}),
		pending: make(map[string]chan wsReply),
	}
	go ws.readLoop()

	return ws, nil
}

func (ws *LobbyWebSocket) Close() error {
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return nil
	}
	ws.closed = true
	ws.mu.Unlock()

	ws.writeMu.Lock()
	_ = ws.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	ws.writeMu.Unlock()

	err := ws.conn.Close()
	<-ws.done
	return err
}

// Done is closed once the connection stops reading.
func (ws *LobbyWebSocket) Done() <-chan struct{} {
	return ws.done
}

// Err reports why reading stopped. It is nil after a local Close.
func (ws *LobbyWebSocket) Err() error {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.err
}

// SetLobbyChangeHandler receives every lobby_change push, including the one
// the server sends right after connecting if set early enough.
func (ws *LobbyWebSocket) SetLobbyChangeHandler(handler func(Lobby)) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.lobbyHandler = handler
}

func (ws *LobbyWebSocket) SetErrorHandler(handler func(error)) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.errorHandler = handler
}

// Name creates the connection's member. Calling it again returns the member
// already bound to the connection.
func (ws *LobbyWebSocket) Name(ctx context.Context, name string) (*Member, error) {
	data, err := ws.request(ctx, NameEvent, name)
	if err != nil {
		return nil, err
	}

	member := &Member{}
	if err := json.Unmarshal(data, member); err != nil {
		return nil, fmt.Errorf("decode member: %w", err)
	}
	return member, nil
}

func (ws *LobbyWebSocket) JoinRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return ErrMissingIDParameter
	}
	_, err := ws.request(ctx, JoinRoomEvent, map[string]string{"id": roomID})
	return err
}

func (ws *LobbyWebSocket) LeaveRoom(ctx context.Context, roomID string) error {
	if roomID == "" {
		return ErrMissingIDParameter
	}
	_, err := ws.request(ctx, LeaveRoomEvent, map[string]string{"id": roomID})
	return err
}

func (ws *LobbyWebSocket) request(ctx context.Context, event string, data any) (json.RawMessage, error) {
	ws.mu.Lock()
	if ws.closed || ws.err != nil {
		ws.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	ws.callbacks++
	callback := strconv.FormatUint(ws.callbacks, 10)
	replies := make(chan wsReply, 1)
	ws.pending[callback] = replies
	ws.mu.Unlock()

	defer func() {
		ws.mu.Lock()
		delete(ws.pending, callback)
		ws.mu.Unlock()
	}()

	ws.writeMu.Lock()
	err := ws.conn.WriteJSON(wsRequest{Event: event, Data: data, Callback: callback})
	ws.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", event, err)
	}

	select {
	case reply := <-replies:
		if reply.Error != nil {
			return nil, &ReplyError{Event: event, Message: *reply.Error}
		}
		return reply.Data, nil
	case <-ws.done:
		return nil, ErrConnectionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (ws *LobbyWebSocket) readLoop() {
	defer close(ws.done)

	for {
		var msg WSMessage
		if err := ws.conn.ReadJSON(&msg); err != nil {
			ws.fail(err)
			return
		}

		switch msg.Event {
		case ReplyEvent:
			var reply wsReply
			if err := json.Unmarshal(msg.Data, &reply); err != nil {
				ws.report(fmt.Errorf("decode reply: %w", err))
				continue
			}
			ws.mu.RLock()
			replies, ok := ws.pending[reply.Callback]
			ws.mu.RUnlock()
			if ok {
				replies <- reply
			}
		case LobbyChangeEvent:
			var lobby Lobby
			if err := json.Unmarshal(msg.Data, &lobby); err != nil {
				ws.report(fmt.Errorf("decode lobby: %w", err))
				continue
			}
			ws.mu.RLock()
			handler := ws.lobbyHandler
			ws.mu.RUnlock()
			if handler != nil {
				handler(lobby)
			}
		}
	}
}

func (ws *LobbyWebSocket) fail(err error) {
	ws.mu.Lock()
	closed := ws.closed
	if !closed {
		ws.err = err
	}
	ws.mu.Unlock()

	if closed || websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, net.ErrClosed) {
		return
	}
	ws.report(err)
}

func (ws *LobbyWebSocket) report(err error) {
	ws.mu.RLock()
	handler := ws.errorHandler
	ws.mu.RUnlock()
	if handler != nil {
		handler(err)
	}
}
