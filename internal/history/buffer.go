// Package history is the bounded recent-message view over the persistent
// message log.
package history

import (
	"context"

	"chatcord-server/internal/models"
	"chatcord-server/internal/store"
)

// DefaultLimit is how many messages a freshly joined connection receives.
const DefaultLimit = 30

type Buffer struct {
	store store.MessageStore
	limit int
}

func NewBuffer(s store.MessageStore, limit int) *Buffer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Buffer{store: s, limit: limit}
}

// Append persists one message. Storage is unbounded; the cap applies to
// retrieval only.
func (b *Buffer) Append(ctx context.Context, msg *models.Message) error {
	return b.store.Append(ctx, msg)
}

// Recent returns at most the configured number of latest messages for the
// room, oldest first.
func (b *Buffer) Recent(ctx context.Context, room string) ([]models.Message, error) {
	messages, err := b.store.Recent(ctx, room, b.limit)
	if err != nil {
		return nil, err
	}

	// The store hands them back newest first; reverse to show oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// PurgeRoom drops the room's entire history. Only room garbage collection
// calls this.
func (b *Buffer) PurgeRoom(ctx context.Context, room string) error {
	return b.store.PurgeRoom(ctx, room)
}
