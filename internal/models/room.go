package models

// Room is a chat room descriptor. The Lobby is implicit and never stored;
// direct-message rooms are always private.
type Room struct {
	Name      string `json:"name"`
	IsPrivate bool   `json:"is_private"`
}

// RoomInfo is a room-list entry carrying the room's current online members.
type RoomInfo struct {
	Name  string   `json:"name"`
	Users []string `json:"users"`
}
