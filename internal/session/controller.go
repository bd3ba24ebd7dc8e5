// Package session drives one connection's lifecycle: join, room switches,
// sends and disconnect, and decides which notifications each transition
// produces.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"chatcord-server/internal/history"
	"chatcord-server/internal/models"
	"chatcord-server/internal/presence"
	"chatcord-server/internal/rooms"
	"chatcord-server/internal/store"
	"chatcord-server/internal/utils"
)

// BotName authors every server-generated system message.
const BotName = "ChatCord Bot"

var (
	ErrEmptyUsername = errors.New("username is required")
	ErrEmptyRoomName = errors.New("room name is required")
	ErrEmptyMessage  = errors.New("message text is required")
)

// Broadcaster delivers outbound events. Implementations are fire-and-forget;
// a failed write never fails the transition that produced it.
type Broadcaster interface {
	ToConn(connID string, event models.WSEvent)
	ToUser(username string, event models.WSEvent)
	ToRoom(room, excludeConn string, event models.WSEvent)
	ToAll(event models.WSEvent)
}

type Controller struct {
	dir      *presence.Directory
	registry *rooms.Registry
	history  *history.Buffer
	users    store.UserStore
	fanout   Broadcaster
}

func NewController(dir *presence.Directory, registry *rooms.Registry, hist *history.Buffer, users store.UserStore, fanout Broadcaster) *Controller {
	return &Controller{
		dir:      dir,
		registry: registry,
		history:  hist,
		users:    users,
		fanout:   fanout,
	}
}

// Join moves an anonymous connection into the Lobby under the given
// username. The Directory upsert is the atomic conflict gate; a username
// already online elsewhere returns presence.ErrAlreadyOnline and mutates
// nothing.
func (c *Controller) Join(ctx context.Context, connID, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}

	user, err := c.dir.UpsertOnline(username, connID, rooms.Lobby)
	if err != nil {
		return err
	}

	// lastSeen bookkeeping in the user table is best-effort.
	if err := c.users.UpdateLastSeen(ctx, username, user.LastSeen, true); err != nil {
		utils.LogError(err, "join lastSeen")
	}

	c.fanout.ToConn(connID, models.WSEvent{Event: models.EventJoinOK, Username: username})
	c.sendHistory(ctx, connID, rooms.Lobby)
	c.fanout.ToConn(connID, systemMessage(rooms.Lobby, "Welcome to the ChatCord Lobby!"))
	c.fanout.ToRoom(rooms.Lobby, connID, systemMessage(rooms.Lobby, username+" has joined the lobby"))
	c.fanout.ToRoom(rooms.Lobby, "", c.roomMembers(rooms.Lobby))
	c.fanout.ToAll(models.WSEvent{Event: models.EventAllUsers, Users: c.dir.ListOnline()})
	c.fanout.ToAll(c.roomList())
	return nil
}

// CreateRoom registers a public room and announces the updated room list.
// The requester is not moved; clients follow up with a switch.
func (c *Controller) CreateRoom(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyRoomName
	}
	if err := c.registry.Ensure(ctx, name, false); err != nil {
		return err
	}
	c.fanout.ToAll(c.roomList())
	return nil
}

// SwitchRoom moves an active connection from its current room into newRoom.
// Events not tied to an active connection are ignored, the benign race
// between a disconnect and a late inbound frame.
func (c *Controller) SwitchRoom(ctx context.Context, connID, newRoom string) error {
	newRoom = strings.TrimSpace(newRoom)
	if newRoom == "" {
		return ErrEmptyRoomName
	}

	user, ok := c.dir.FindByConnection(connID)
	if !ok {
		return nil
	}
	oldRoom := user.Room
	username := user.Username
	if _, ok := c.dir.SetRoom(connID, newRoom); !ok {
		return nil
	}

	if rooms.IsDMRoom(newRoom) {
		if err := c.registry.Ensure(ctx, newRoom, true); err != nil {
			utils.LogError(err, "ensure DM room")
		}
	}

	if oldRoom != "" && oldRoom != newRoom {
		c.fanout.ToRoom(oldRoom, "", systemMessage(oldRoom, username+" has left this room"))
		c.fanout.ToRoom(oldRoom, "", c.roomMembers(oldRoom))
		c.registry.GarbageCollect(ctx, oldRoom, connID)
	}

	c.sendHistory(ctx, connID, newRoom)
	c.fanout.ToConn(connID, systemMessage(newRoom, "Welcome to "+newRoom+"!"))
	c.fanout.ToRoom(newRoom, connID, systemMessage(newRoom, username+" has joined the chat"))
	c.fanout.ToRoom(newRoom, "", c.roomMembers(newRoom))
	c.fanout.ToAll(c.roomList())
	return nil
}

// SendMessage persists and fans out one message from an active connection.
// In a DM room, the other participant additionally gets a notification if
// they are online but looking at a different room.
func (c *Controller) SendMessage(ctx context.Context, connID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	user, ok := c.dir.FindByConnection(connID)
	if !ok {
		return nil
	}

	kind := models.KindPublic
	if rooms.IsDMRoom(user.Room) {
		kind = models.KindDM
	}

	msg := &models.Message{Room: user.Room, Author: user.Username, Text: text, Kind: kind}
	if err := c.history.Append(ctx, msg); err != nil {
		// Nothing was broadcast, so in-memory and persisted state agree.
		return err
	}

	c.fanout.ToRoom(user.Room, "", models.WSEvent{
		Event:  models.EventMessage,
		Room:   user.Room,
		Author: msg.Author,
		Text:   msg.Text,
		Kind:   msg.Kind,
		Time:   msg.CreatedAt.UnixMilli(),
	})

	if kind == models.KindDM {
		if other, ok := rooms.DMCounterpart(user.Room, user.Username); ok {
			if rec, ok := c.dir.FindByUsername(other); ok && rec.Online && rec.Room != user.Room {
				c.fanout.ToUser(other, models.WSEvent{
					Event:        models.EventDMNotify,
					FromUsername: user.Username,
					Room:         user.Room,
				})
			}
		}
	}
	return nil
}

// Disconnect releases the connection. An anonymous or already-released
// connection is a no-op.
func (c *Controller) Disconnect(ctx context.Context, connID string) {
	user, ok := c.dir.MarkOffline(connID)
	if !ok {
		return
	}

	if err := c.users.UpdateLastSeen(ctx, user.Username, time.Now(), false); err != nil {
		utils.LogError(err, "disconnect lastSeen")
	}

	if user.Room == "" {
		return
	}
	c.fanout.ToRoom(user.Room, "", systemMessage(user.Room, user.Username+" has left the chat"))
	c.fanout.ToRoom(user.Room, "", c.roomMembers(user.Room))
	c.fanout.ToAll(models.WSEvent{Event: models.EventAllUsers, Users: c.dir.ListOnline()})
	c.registry.GarbageCollect(ctx, user.Room, "")
	c.fanout.ToAll(c.roomList())
}

func (c *Controller) sendHistory(ctx context.Context, connID, room string) {
	messages, err := c.history.Recent(ctx, room)
	if err != nil {
		utils.LogError(err, "fetch history")
		c.fanout.ToConn(connID, models.WSEvent{Event: models.EventError, Reason: "could not load history"})
		return
	}
	out := make([]models.ChatMessage, len(messages))
	for i, m := range messages {
		out[i] = models.ChatMessage{
			Author: m.Author,
			Text:   m.Text,
			Time:   m.CreatedAt.UnixMilli(),
			Kind:   m.Kind,
		}
	}
	c.fanout.ToConn(connID, models.WSEvent{Event: models.EventHistory, Room: room, Messages: out})
}

func (c *Controller) roomMembers(room string) models.WSEvent {
	return models.WSEvent{
		Event: models.EventRoomMembers,
		Room:  room,
		Users: c.dir.ListOnlineInRoom(room),
	}
}

func (c *Controller) roomList() models.WSEvent {
	return models.WSEvent{Event: models.EventRoomList, Rooms: c.registry.RoomData()}
}

func systemMessage(room, text string) models.WSEvent {
	return models.WSEvent{
		Event:  models.EventMessage,
		Room:   room,
		Author: BotName,
		Text:   text,
		Kind:   models.KindPublic,
		Time:   time.Now().UnixMilli(),
	}
}
