// Package rooms tracks the set of known rooms and deletes the ones nobody
// occupies anymore.
package rooms

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"chatcord-server/internal/models"
	"chatcord-server/internal/store"
	"chatcord-server/internal/utils"
)

// Lobby is the implicit default room. It always exists, is never stored, and
// can never be created or deleted by users.
const Lobby = "Lobby"

// ErrReservedRoom rejects attempts to create the Lobby under any casing.
var ErrReservedRoom = errors.New("room name is reserved")

// Presence is the slice of the Directory the registry needs to derive
// membership.
type Presence interface {
	ListOnlineInRoom(room string) []string
	FindByConnection(connID string) (models.User, bool)
}

// Purger removes a room's persisted message history during garbage
// collection. Satisfied by *history.Buffer.
type Purger interface {
	PurgeRoom(ctx context.Context, room string) error
}

type Registry struct {
	store    store.RoomStore
	presence Presence
	purger   Purger

	mu    sync.RWMutex
	rooms map[string]models.Room
}

func NewRegistry(s store.RoomStore, p Presence, purger Purger) *Registry {
	return &Registry{
		store:    s,
		presence: p,
		purger:   purger,
		rooms:    make(map[string]models.Room),
	}
}

// Load warms the in-memory set from the room table. Called once at startup.
func (r *Registry) Load(ctx context.Context) error {
	stored, err := r.store.List(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range stored {
		r.rooms[room.Name] = room
	}
	return nil
}

// Ensure registers a room if it does not exist yet. Creating the Lobby is
// rejected under any casing; DM rooms are forced private. The room is
// persisted before it becomes visible in memory, so a failed write leaves no
// half-created room behind.
func (r *Registry) Ensure(ctx context.Context, name string, isPrivate bool) error {
	if strings.EqualFold(name, Lobby) {
		return ErrReservedRoom
	}
	if IsDMRoom(name) {
		isPrivate = true
	}

	r.mu.RLock()
	_, exists := r.rooms[name]
	r.mu.RUnlock()
	if exists {
		return nil
	}

	room := models.Room{Name: name, IsPrivate: isPrivate}
	if err := r.store.Upsert(ctx, room); err != nil {
		return err
	}

	r.mu.Lock()
	r.rooms[name] = room
	r.mu.Unlock()
	return nil
}

// ListAll returns every known room descriptor, the Lobby always first.
func (r *Registry) ListAll() []models.Room {
	r.mu.RLock()
	rooms := make([]models.Room, 0, len(r.rooms)+1)
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return append([]models.Room{{Name: Lobby}}, rooms...)
}

// RoomData builds the room-list broadcast payload: every non-private room
// with its current online members. DM rooms stay out of the shared listing.
func (r *Registry) RoomData() []models.RoomInfo {
	all := r.ListAll()
	data := make([]models.RoomInfo, 0, len(all))
	for _, room := range all {
		if room.IsPrivate {
			continue
		}
		users := r.presence.ListOnlineInRoom(room.Name)
		if users == nil {
			users = []string{}
		}
		data = append(data, models.RoomInfo{Name: room.Name, Users: users})
	}
	return data
}

// GarbageCollect removes the room and purges its history when it is
// non-private, not the Lobby, not a DM room, and has no online members.
// Membership is recomputed immediately before deletion; excludeConn discounts
// a connection that is mid-transition out of the room. Deletion is
// best-effort: storage failures are logged and the room is left in place.
func (r *Registry) GarbageCollect(ctx context.Context, name, excludeConn string) bool {
	if strings.EqualFold(name, Lobby) || IsDMRoom(name) {
		return false
	}

	r.mu.RLock()
	room, known := r.rooms[name]
	r.mu.RUnlock()
	if !known || room.IsPrivate {
		return false
	}

	members := r.presence.ListOnlineInRoom(name)
	if excludeConn != "" {
		if u, ok := r.presence.FindByConnection(excludeConn); ok {
			members = withoutUser(members, u.Username)
		}
	}
	if len(members) > 0 {
		return false
	}

	if err := r.store.Delete(ctx, name); err != nil {
		utils.LogError(err, "room GC delete")
		return false
	}
	if err := r.purger.PurgeRoom(ctx, name); err != nil {
		utils.LogError(err, "room GC purge")
	}

	r.mu.Lock()
	delete(r.rooms, name)
	r.mu.Unlock()
	return true
}

func withoutUser(users []string, username string) []string {
	out := users[:0]
	for _, u := range users {
		if u != username {
			out = append(out, u)
		}
	}
	return out
}
