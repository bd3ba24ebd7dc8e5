package rooms

import "strings"

const dmPrefix = "dm-"

// DMRoomName returns the canonical room name for a direct-message pair. The
// participants are sorted lexicographically, so both argument orders produce
// the same name.
func DMRoomName(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return dmPrefix + a + "-" + b
}

// IsDMRoom reports whether name carries the direct-message prefix.
func IsDMRoom(name string) bool {
	return strings.HasPrefix(name, dmPrefix)
}

// DMCounterpart resolves the other participant encoded in a DM room name.
func DMCounterpart(room, username string) (string, bool) {
	if !IsDMRoom(room) {
		return "", false
	}
	for _, name := range strings.Split(strings.TrimPrefix(room, dmPrefix), "-") {
		if name != username {
			return name, true
		}
	}
	return "", false
}
