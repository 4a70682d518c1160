package api

import (
	"encoding/json"
	"time"
)

// Message types on the WebSocket.
const (
	MsgFrame   = "frame"
	MsgCommand = "command"
	MsgAck     = "ack"
	MsgError   = "error"
	MsgPing    = "ping"
	MsgPong    = "pong"
)

// WSMessage is the envelope for every WebSocket message in both directions.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"` // echoed back on ack/error
	Timestamp time.Time       `json:"timestamp,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`

	// Inbound command fields
	Bearing *float64 `json:"bearing,omitempty"`
	Source  string   `json:"source,omitempty"`
}

func encodeMessage(typ, id string, data any) ([]byte, error) {
	msg := WSMessage{Type: typ, ID: id, Timestamp: time.Now()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}

func encodeError(id, text string) []byte {
	b, _ := json.Marshal(WSMessage{Type: MsgError, ID: id, Timestamp: time.Now(), Error: text})
	return b
}
