package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertOnline(t *testing.T) {
	d := NewDirectory()

	u, err := d.UpsertOnline("alice", "conn-1", "Lobby")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "conn-1", u.ConnID)
	assert.Equal(t, "Lobby", u.Room)
	assert.True(t, u.Online)
	assert.False(t, u.LastSeen.IsZero())
}

func TestUpsertOnline_Conflict(t *testing.T) {
	d := NewDirectory()

	_, err := d.UpsertOnline("alice", "conn-1", "Lobby")
	require.NoError(t, err)

	_, err = d.UpsertOnline("alice", "conn-2", "Lobby")
	assert.ErrorIs(t, err, ErrAlreadyOnline)

	// Same connection may re-upsert.
	_, err = d.UpsertOnline("alice", "conn-1", "Lobby")
	assert.NoError(t, err)
}

func TestUpsertOnline_RevivesOfflineRecord(t *testing.T) {
	d := NewDirectory()

	_, err := d.UpsertOnline("alice", "conn-1", "Lobby")
	require.NoError(t, err)
	_, ok := d.MarkOffline("conn-1")
	require.True(t, ok)

	u, err := d.UpsertOnline("alice", "conn-2", "Lobby")
	require.NoError(t, err)
	assert.Equal(t, "conn-2", u.ConnID)
	assert.True(t, u.Online)
}

func TestUpsertOnline_SingleWinnerUnderRace(t *testing.T) {
	d := NewDirectory()

	const attempts = 50
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = d.UpsertOnline("alice", fmt.Sprintf("conn-%d", i), "Lobby")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyOnline)
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent join must succeed")
}

func TestFindByConnection(t *testing.T) {
	d := NewDirectory()

	_, err := d.UpsertOnline("alice", "conn-1", "Lobby")
	require.NoError(t, err)

	u, ok := d.FindByConnection("conn-1")
	require.True(t, ok)
	assert.Equal(t, "alice", u.Username)

	_, ok = d.FindByConnection("unknown")
	assert.False(t, ok)
}

func TestMarkOffline(t *testing.T) {
	d := NewDirectory()

	_, err := d.UpsertOnline("alice", "conn-1", "general")
	require.NoError(t, err)

	prior, ok := d.MarkOffline("conn-1")
	require.True(t, ok)
	assert.Equal(t, "alice", prior.Username)
	assert.Equal(t, "general", prior.Room, "snapshot keeps the occupied room")

	u, ok := d.FindByUsername("alice")
	require.True(t, ok)
	assert.False(t, u.Online)
	assert.Empty(t, u.ConnID)

	_, ok = d.FindByConnection("conn-1")
	assert.False(t, ok)

	// Second release of the same connection is absent, not an error.
	_, ok = d.MarkOffline("conn-1")
	assert.False(t, ok)
}

func TestSetRoom(t *testing.T) {
	d := NewDirectory()

	_, err := d.UpsertOnline("alice", "conn-1", "Lobby")
	require.NoError(t, err)

	u, ok := d.SetRoom("conn-1", "general")
	require.True(t, ok)
	assert.Equal(t, "general", u.Room)

	assert.Empty(t, d.ListOnlineInRoom("Lobby"))
	assert.Equal(t, []string{"alice"}, d.ListOnlineInRoom("general"))

	_, ok = d.SetRoom("unknown", "general")
	assert.False(t, ok)
}

func TestListOnlineInRoom_JoinOrder(t *testing.T) {
	d := NewDirectory()

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := d.UpsertOnline(name, "conn-"+name, "Lobby")
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"carol", "alice", "bob"}, d.ListOnlineInRoom("Lobby"))

	// Re-entering a room moves the user to the end of the ordering.
	_, ok := d.SetRoom("conn-carol", "general")
	require.True(t, ok)
	_, ok = d.SetRoom("conn-carol", "Lobby")
	require.True(t, ok)
	assert.Equal(t, []string{"alice", "bob", "carol"}, d.ListOnlineInRoom("Lobby"))
}

func TestListOnline(t *testing.T) {
	d := NewDirectory()

	_, err := d.UpsertOnline("alice", "conn-1", "Lobby")
	require.NoError(t, err)
	_, err = d.UpsertOnline("bob", "conn-2", "general")
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "bob"}, d.ListOnline())

	_, ok := d.MarkOffline("conn-1")
	require.True(t, ok)
	assert.Equal(t, []string{"bob"}, d.ListOnline())
}
