// Package presence implements the Directory: the authoritative mapping of
// connection to user to room.
package presence

import (
	"errors"
	"hash/fnv"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"chatcord-server/internal/models"
)

// ErrAlreadyOnline is returned by UpsertOnline when the username is held by
// another live connection. Exactly one of N racing joins for the same
// username gets a nil error.
var ErrAlreadyOnline = errors.New("username is already online")

const shardCount = 32

// Directory stores user records sharded by username so unrelated users never
// contend on one lock. Two secondary indexes resolve connection IDs and room
// membership without scanning every record. The indexes are updated right
// after the owning shard; a lookup landing in that window misses, which
// callers treat as absent.
type Directory struct {
	shards [shardCount]shard
	seq    atomic.Uint64

	connMu sync.RWMutex
	conns  map[string]string // connID -> username

	roomMu sync.RWMutex
	rooms  map[string]map[string]uint64 // room -> username -> join order
}

type shard struct {
	mu    sync.Mutex
	users map[string]*record
}

type record struct {
	user models.User
	seq  uint64
}

func NewDirectory() *Directory {
	d := &Directory{
		conns: make(map[string]string),
		rooms: make(map[string]map[string]uint64),
	}
	for i := range d.shards {
		d.shards[i].users = make(map[string]*record)
	}
	return d
}

func (d *Directory) shardFor(username string) *shard {
	h := fnv.New32a()
	h.Write([]byte(username))
	return &d.shards[h.Sum32()%shardCount]
}

// UpsertOnline creates or revives the record for username and binds it to
// connID. It is the atomic gate for join conflicts: a username already online
// under a different connection is rejected with ErrAlreadyOnline.
func (d *Directory) UpsertOnline(username, connID, room string) (models.User, error) {
	sh := d.shardFor(username)
	sh.mu.Lock()
	rec, ok := sh.users[username]
	if ok && rec.user.Online && rec.user.ConnID != connID {
		sh.mu.Unlock()
		return models.User{}, ErrAlreadyOnline
	}
	oldRoom := ""
	if ok {
		if rec.user.Online {
			oldRoom = rec.user.Room
		}
	} else {
		rec = &record{}
		sh.users[username] = rec
	}
	rec.seq = d.seq.Add(1)
	rec.user = models.User{
		Username: username,
		ConnID:   connID,
		Room:     room,
		Online:   true,
		LastSeen: time.Now(),
	}
	snapshot := rec.user
	seq := rec.seq
	sh.mu.Unlock()

	d.connMu.Lock()
	d.conns[connID] = username
	d.connMu.Unlock()

	d.indexMove(oldRoom, room, username, seq)
	return snapshot, nil
}

// FindByConnection resolves connID to its user record. Unknown or stale
// connection IDs report absent, never an error.
func (d *Directory) FindByConnection(connID string) (models.User, bool) {
	d.connMu.RLock()
	username, ok := d.conns[connID]
	d.connMu.RUnlock()
	if !ok {
		return models.User{}, false
	}
	u, ok := d.FindByUsername(username)
	if !ok || u.ConnID != connID {
		return models.User{}, false
	}
	return u, true
}

func (d *Directory) FindByUsername(username string) (models.User, bool) {
	sh := d.shardFor(username)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	rec, ok := sh.users[username]
	if !ok {
		return models.User{}, false
	}
	return rec.user, true
}

// MarkOffline releases connID and returns a snapshot of the record as it was
// while online, so the caller can clean up room state.
func (d *Directory) MarkOffline(connID string) (models.User, bool) {
	d.connMu.Lock()
	username, ok := d.conns[connID]
	if ok {
		delete(d.conns, connID)
	}
	d.connMu.Unlock()
	if !ok {
		return models.User{}, false
	}

	sh := d.shardFor(username)
	sh.mu.Lock()
	rec, ok := sh.users[username]
	if !ok || rec.user.ConnID != connID {
		// The username was reclaimed by a newer connection.
		sh.mu.Unlock()
		return models.User{}, false
	}
	prior := rec.user
	rec.user.ConnID = ""
	rec.user.Online = false
	rec.user.LastSeen = time.Now()
	sh.mu.Unlock()

	d.indexMove(prior.Room, "", username, 0)
	return prior, true
}

// SetRoom moves an established connection to a new room. The user is placed
// at the end of the new room's member ordering.
func (d *Directory) SetRoom(connID, room string) (models.User, bool) {
	d.connMu.RLock()
	username, ok := d.conns[connID]
	d.connMu.RUnlock()
	if !ok {
		return models.User{}, false
	}

	sh := d.shardFor(username)
	sh.mu.Lock()
	rec, ok := sh.users[username]
	if !ok || !rec.user.Online || rec.user.ConnID != connID {
		sh.mu.Unlock()
		return models.User{}, false
	}
	oldRoom := rec.user.Room
	rec.user.Room = room
	rec.seq = d.seq.Add(1)
	snapshot := rec.user
	seq := rec.seq
	sh.mu.Unlock()

	d.indexMove(oldRoom, room, username, seq)
	return snapshot, true
}

// ListOnlineInRoom returns the room's online members in join order.
func (d *Directory) ListOnlineInRoom(room string) []string {
	type entry struct {
		name string
		seq  uint64
	}
	d.roomMu.RLock()
	members := d.rooms[room]
	entries := make([]entry, 0, len(members))
	for name, seq := range members {
		entries = append(entries, entry{name, seq})
	}
	d.roomMu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// ListOnline returns every online username, in the order users came online.
func (d *Directory) ListOnline() []string {
	type entry struct {
		name string
		seq  uint64
	}
	var entries []entry
	for i := range d.shards {
		sh := &d.shards[i]
		sh.mu.Lock()
		for name, rec := range sh.users {
			if rec.user.Online {
				entries = append(entries, entry{name, rec.seq})
			}
		}
		sh.mu.Unlock()
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

func (d *Directory) indexMove(oldRoom, newRoom, username string, seq uint64) {
	d.roomMu.Lock()
	defer d.roomMu.Unlock()

	if oldRoom != "" && oldRoom != newRoom {
		if m := d.rooms[oldRoom]; m != nil {
			delete(m, username)
			if len(m) == 0 {
				delete(d.rooms, oldRoom)
			}
		}
	}
	if newRoom != "" {
		m := d.rooms[newRoom]
		if m == nil {
			m = make(map[string]uint64)
			d.rooms[newRoom] = m
		}
		m[username] = seq
	}
}
