package ws

import "encoding/json"

// Envelope wraps every inbound WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "tictactoe-move"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// outFrame is the outbound counterpart.
type outFrame struct {
	Event string `json:"event"`
	Body  any    `json:"body,omitempty"`
}

// ──────────────────────────── Request DTOs ─────────────────────────────

// JoinFightRequest is the body for "join-fight".
type JoinFightRequest struct {
	Name string `json:"name"`
}

// ActionRequest is the body for "action". The type tag is relayed as
// reported; peers are trusted (see fight.Service).
type ActionRequest struct {
	Type string `json:"type"`
}

// PlayNoteRequest is the body for "play-note".
type PlayNoteRequest struct {
	Note string `json:"note"`
}

// MoveRequest is the body for "tictactoe-move".
type MoveRequest struct {
	Index int `json:"index"`
}
