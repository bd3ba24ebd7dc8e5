package rooms

import "testing"

func TestDMRoomName(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want string
	}{
		{name: "already ordered", a: "alice", b: "bob", want: "dm-alice-bob"},
		{name: "reversed", a: "bob", b: "alice", want: "dm-alice-bob"},
		{name: "case sensitive ordering", a: "Bob", b: "alice", want: "dm-Bob-alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DMRoomName(tt.a, tt.b); got != tt.want {
				t.Errorf("DMRoomName(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDMRoomName_OrderIndependent(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"zed", "amy"},
		{"a", "b"},
		{"user1", "user2"},
	}
	for _, p := range pairs {
		forward := DMRoomName(p[0], p[1])
		backward := DMRoomName(p[1], p[0])
		if forward != backward {
			t.Errorf("DMRoomName(%q, %q) = %q but DMRoomName(%q, %q) = %q", p[0], p[1], forward, p[1], p[0], backward)
		}
		if again := DMRoomName(p[0], p[1]); again != forward {
			t.Errorf("DMRoomName not stable: %q then %q", forward, again)
		}
	}
}

func TestIsDMRoom(t *testing.T) {
	if !IsDMRoom("dm-alice-bob") {
		t.Error("IsDMRoom(dm-alice-bob) = false, want true")
	}
	if IsDMRoom("Lobby") {
		t.Error("IsDMRoom(Lobby) = true, want false")
	}
	if IsDMRoom("general") {
		t.Error("IsDMRoom(general) = true, want false")
	}
}

func TestDMCounterpart(t *testing.T) {
	tests := []struct {
		name     string
		room     string
		username string
		want     string
		found    bool
	}{
		{name: "first participant", room: "dm-alice-bob", username: "alice", want: "bob", found: true},
		{name: "second participant", room: "dm-alice-bob", username: "bob", want: "alice", found: true},
		{name: "not a dm room", room: "general", username: "alice", found: false},
		{name: "self dm", room: "dm-alice-alice", username: "alice", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := DMCounterpart(tt.room, tt.username)
			if found != tt.found || got != tt.want {
				t.Errorf("DMCounterpart(%q, %q) = (%q, %v), want (%q, %v)", tt.room, tt.username, got, found, tt.want, tt.found)
			}
		})
	}
}
