package models

import "time"

// User is the presence record for one account. At most one record per
// username may be online at any time; ConnID is set only while online.
type User struct {
	Username string    `json:"username"`
	ConnID   string    `json:"-"`
	Room     string    `json:"room"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}
