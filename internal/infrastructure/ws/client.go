package ws

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hilthontt/lobby/internal/domain"
	"github.com/hilthontt/lobby/internal/infrastructure/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one websocket connection. It owns at most one member, created by
// the first name request.
type Client struct {
	conn    *connWrapper
	Message chan *WSMessage
	ID      string

	mu     sync.Mutex
	member *domain.Member
	closed bool
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn:    newConnWrapper(conn),
		Message: make(chan *WSMessage, 64), // buffered to avoid dead-locks on slow clients
		ID:      uuid.NewString(),
	}
}

func (c *Client) Member() *domain.Member {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.member
}

// setMember records m unless the client already has a member, and returns
// whichever member the client ends up with.
func (c *Client) setMember(m *domain.Member) (*domain.Member, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.member != nil {
		return c.member, false
	}
	c.member = m
	return m, true
}

func (c *Client) ReadMessage(hub *Hub) {
	defer func() {
		select {
		case hub.Unregister() <- c:
		case <-hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.conn.SetPongHandler(func(string) error {
		return c.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req Request
		if err := c.conn.conn.ReadJSON(&req); err != nil {
			if isDecodeError(err) {
				c.send(NewReply(req, errBadRequest, nil), hub.logger)
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				hub.logger.Warn(logging.WebSocket, logging.Request, "ws read error", map[logging.ExtraKey]any{
					"ClientId":           c.ID,
					logging.ErrorMessage: err.Error(),
				})
			}
			break
		}

		hub.handle(c, req)
	}
}

func (c *Client) WriteMessage() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Message:
			if !ok {
				_ = c.conn.WriteClose()
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WritePing(); err != nil {
				return
			}
		}
	}
}

// isDecodeError reports a frame that arrived intact but is not a Request.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

// send queues msg without blocking; a client that stops reading loses
// messages rather than stalling the hub.
func (c *Client) send(msg *WSMessage, logger logging.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.Message <- msg:
	default:
		logger.Warn(logging.WebSocket, logging.Notification, "client buffer full, dropping message", map[logging.ExtraKey]any{
			"ClientId":    c.ID,
			logging.Event: msg.Event,
		})
	}
}

// close ends the write pump. Later sends are dropped.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Message)
	}
}
