// Package store holds the persistence collaborators of the chat core: the
// credential/user table, the room table and the append-only message log.
package store

import (
	"context"
	"errors"
	"time"

	"chatcord-server/internal/models"
)

var (
	ErrNotFound   = errors.New("store: not found")
	ErrUserExists = errors.New("store: user already exists")
)

// Account is a persisted credential row, keyed by username.
type Account struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	LastSeen     time.Time
}

type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) (*Account, error)
	FindByUsername(ctx context.Context, username string) (*Account, error)
	UpdateLastSeen(ctx context.Context, username string, at time.Time, online bool) error
}

type RoomStore interface {
	// Upsert is idempotent on the room name.
	Upsert(ctx context.Context, room models.Room) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]models.Room, error)
}

type MessageStore interface {
	// Append persists msg and fills in its ID and CreatedAt.
	Append(ctx context.Context, msg *models.Message) error
	// Recent returns up to limit messages for the room, newest first.
	Recent(ctx context.Context, room string, limit int) ([]models.Message, error)
	PurgeRoom(ctx context.Context, room string) error
}
