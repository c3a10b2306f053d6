package ws

import "encoding/json"

// Request is what a client sends. Callback is echoed back in the Reply so the
// client can match it to the request.
type Request struct {
	Event    string          `json:"event"`
	Data     json.RawMessage `json:"data"`
	Callback string          `json:"callback,omitempty"`
}

// WSMessage is every server-to-client frame.
type WSMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type Reply struct {
	Error    *string `json:"error"`
	Data     any     `json:"data"`
	Callback string  `json:"callback,omitempty"`
}

type RoomRequest struct {
	ID string `json:"id"`
}

func NewReply(req Request, errMsg string, data any) *WSMessage {
	reply := Reply{Data: data, Callback: req.Callback}
	if errMsg != "" {
		reply.Error = &errMsg
	}
	return &WSMessage{Event: ReplyEvent, Data: reply}
}

func NewLobbyChange(view any) *WSMessage {
	return &WSMessage{Event: LobbyChangeEvent, Data: view}
}
