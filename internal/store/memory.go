package store

import (
	"context"
	"sync"
	"time"

	"chatcord-server/internal/models"
)

// In-memory implementations, used by tests and by local runs without a
// database. They follow the same contracts as the Postgres stores.

type MemoryUserStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{accounts: make(map[string]*Account)}
}

func (s *MemoryUserStore) Create(_ context.Context, username, passwordHash string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[username]; ok {
		return nil, ErrUserExists
	}
	now := time.Now()
	acc := &Account{Username: username, PasswordHash: passwordHash, CreatedAt: now, LastSeen: now}
	s.accounts[username] = acc
	cp := *acc
	return &cp, nil
}

func (s *MemoryUserStore) FindByUsername(_ context.Context, username string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[username]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (s *MemoryUserStore) UpdateLastSeen(_ context.Context, username string, at time.Time, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc, ok := s.accounts[username]; ok {
		acc.LastSeen = at
	}
	return nil
}

type MemoryRoomStore struct {
	mu    sync.Mutex
	rooms map[string]models.Room
}

func NewMemoryRoomStore() *MemoryRoomStore {
	return &MemoryRoomStore{rooms: make(map[string]models.Room)}
}

func (s *MemoryRoomStore) Upsert(_ context.Context, room models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.Name]; !ok {
		s.rooms[room.Name] = room
	}
	return nil
}

func (s *MemoryRoomStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, name)
	return nil
}

func (s *MemoryRoomStore) List(_ context.Context) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := make([]models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r)
	}
	return rooms, nil
}

type MemoryMessageStore struct {
	mu       sync.Mutex
	nextID   int
	messages []models.Message
}

func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{}
}

func (s *MemoryMessageStore) Append(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	msg.ID = s.nextID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *MemoryMessageStore) Recent(_ context.Context, room string, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Newest first, matching the Postgres ordering.
	var out []models.Message
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if s.messages[i].Room == room {
			out = append(out, s.messages[i])
		}
	}
	return out, nil
}

func (s *MemoryMessageStore) PurgeRoom(_ context.Context, room string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.Room != room {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	return nil
}
