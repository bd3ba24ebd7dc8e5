package models

// Inbound event names understood by the websocket endpoint.
const (
	EventJoin        = "join"
	EventCreateRoom  = "create-room"
	EventSwitchRoom  = "switch-room"
	EventSendMessage = "send-message"
)

// Outbound event names.
const (
	EventJoinOK      = "join-ok"
	EventJoinError   = "join-error"
	EventMessage     = "message"
	EventHistory     = "history"
	EventRoomMembers = "room-members"
	EventRoomList    = "room-list"
	EventAllUsers    = "all-users"
	EventDMNotify    = "dm-notify"
	EventError       = "error"
)

// WSEvent is the wire envelope for both directions. Fields not used by a
// given event are omitted from the JSON.
type WSEvent struct {
	Event        string        `json:"event"`
	Username     string        `json:"username,omitempty"`
	Room         string        `json:"room,omitempty"`
	Text         string        `json:"text,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	Author       string        `json:"author,omitempty"`
	Kind         string        `json:"kind,omitempty"`
	Time         int64         `json:"time,omitempty"`
	Users        []string      `json:"users,omitempty"`
	Rooms        []RoomInfo    `json:"rooms,omitempty"`
	Messages     []ChatMessage `json:"messages,omitempty"`
	FromUsername string        `json:"from_username,omitempty"`
}

// ChatMessage is the outbound form of a stored message.
type ChatMessage struct {
	Author string `json:"author"`
	Text   string `json:"text"`
	Time   int64  `json:"time"`
	Kind   string `json:"kind"`
}
