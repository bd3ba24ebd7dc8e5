package models

import "time"

// Message kinds.
const (
	KindPublic = "public"
	KindDM     = "dm"
)

// Message is one persisted chat message. Messages are append-only and
// immutable; they are removed only when their room is garbage-collected.
type Message struct {
	ID        int       `json:"id"`
	Room      string    `json:"room"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
