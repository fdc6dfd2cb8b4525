package telemetry

import (
	"encoding/json"

	"github.com/soocke/turret-tracker/domain/tracking"
)

// Message types
const (
	TypeRender  = "render"
	TypePing    = "ping"
	TypePong    = "pong"
	TypeCommand = "command"
	TypeError   = "error"
)

// Message is the envelope for every websocket message.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RenderPayload wraps a render model with a server timestamp.
type RenderPayload struct {
	Sequence  uint64               `json:"sequence"`
	Timestamp int64                `json:"timestamp"`
	Model     tracking.RenderModel `json:"model"`
}

// PingPayload for ping messages.
type PingPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// PongPayload answers a ping.
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

// CommandPayload carries a remote "select" or "quit".
type CommandPayload struct {
	Command string `json:"command"`
}

// ErrorPayload reports a rejected client message.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrInvalidMessage = "INVALID_MESSAGE"
	ErrUnknownCommand = "UNKNOWN_COMMAND"
)

// NewMessage marshals payload into an envelope.
func NewMessage(msgType string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, Payload: data}, nil
}

// ParsePayload decodes the payload into v.
func (m *Message) ParsePayload(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// ParseCommand maps a remote command name onto a tracking command.
func ParseCommand(name string) (tracking.Command, bool) {
	switch name {
	case "select":
		return tracking.CommandSelect, true
	case "quit":
		return tracking.CommandQuit, true
	default:
		return tracking.CommandNone, false
	}
}
