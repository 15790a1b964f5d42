package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"virusbreach/internal/model"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(NewMemoryStore(), VirusRoster)
}

func TestCreateRoom(t *testing.T) {
	reg := newTestRegistry(t)

	room, err := reg.CreateRoom("host-1", model.RoomConfig{})
	require.NoError(t, err)

	assert.Len(t, room.Code, model.RoomCodeLength)
	for _, c := range room.Code {
		assert.Contains(t, roomCodeChars, string(c))
	}
	assert.Equal(t, model.PhaseLobby, room.Phase)
	assert.Equal(t, "host-1", room.HostConnID)
	assert.Equal(t, model.DefaultTimerSec, room.Config.TimerDurationSec)
	assert.Equal(t, model.DefaultNumRounds, room.Config.NumRounds)
	assert.Len(t, room.Teams, len(VirusRoster))
	assert.Equal(t, "team-0", room.Teams[0].ID)
	assert.Equal(t, "TROJAN", room.Teams[0].VirusName)
	assert.Equal(t, 0, room.CurrentRound.Number)
}

func TestRosterTruncatedToMaxTeams(t *testing.T) {
	oversized := make([]VirusSlot, model.MaxTeams+3)
	for i := range oversized {
		oversized[i] = VirusSlot{Name: "VIRUS", Color: "#ffffff"}
	}
	reg := New(NewMemoryStore(), oversized)

	room, err := reg.CreateRoom("host-1", model.RoomConfig{})
	require.NoError(t, err)
	assert.Len(t, room.Teams, model.MaxTeams)
}

func TestEmptyRosterPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(NewMemoryStore(), nil)
	})
}

func TestLookupByCodeCaseInsensitive(t *testing.T) {
	reg := newTestRegistry(t)
	room, err := reg.CreateRoom("host-1", model.RoomConfig{})
	require.NoError(t, err)

	got, ok := reg.LookupByCode(room.Code)
	require.True(t, ok)
	assert.Same(t, room, got)

	got, ok = reg.LookupByCode(lower(room.Code))
	require.True(t, ok)
	assert.Same(t, room, got)

	_, ok = reg.LookupByCode("ZZZZZZ")
	assert.False(t, ok)
}

func TestLookupByHost(t *testing.T) {
	reg := newTestRegistry(t)
	room, err := reg.CreateRoom("host-1", model.RoomConfig{})
	require.NoError(t, err)
	_, err = reg.CreateRoom("host-2", model.RoomConfig{})
	require.NoError(t, err)

	got, ok := reg.LookupByHost("host-1")
	require.True(t, ok)
	assert.Equal(t, room.Code, got.Code)

	_, ok = reg.LookupByHost("host-3")
	assert.False(t, ok)
}

func TestConnectionIndex(t *testing.T) {
	reg := newTestRegistry(t)
	room, err := reg.CreateRoom("host-1", model.RoomConfig{})
	require.NoError(t, err)

	// Host is indexed at creation.
	code, ok := reg.LookupByConnection("host-1")
	require.True(t, ok)
	assert.Equal(t, room.Code, code)

	reg.IndexConnection("player-1", room.Code)
	code, ok = reg.LookupByConnection("player-1")
	require.True(t, ok)
	assert.Equal(t, room.Code, code)

	reg.RemoveConnectionIndex("player-1")
	_, ok = reg.LookupByConnection("player-1")
	assert.False(t, ok)
}

func TestReapRemovesOnlyStaleFinishedRooms(t *testing.T) {
	reg := newTestRegistry(t)

	finished, err := reg.CreateRoom("host-1", model.RoomConfig{})
	require.NoError(t, err)
	active, err := reg.CreateRoom("host-2", model.RoomConfig{})
	require.NoError(t, err)
	freshlyFinished, err := reg.CreateRoom("host-3", model.RoomConfig{})
	require.NoError(t, err)

	finished.Lock()
	finished.Phase = model.PhaseGameOver
	finished.LastActive = time.Now().Add(-2 * time.Hour)
	finished.Unlock()

	active.Lock()
	active.Phase = model.PhaseScenario
	active.LastActive = time.Now().Add(-2 * time.Hour)
	active.Unlock()

	freshlyFinished.Lock()
	freshlyFinished.Phase = model.PhaseGameOver
	freshlyFinished.Unlock()

	removed := reg.Reap(time.Hour)
	assert.Equal(t, 1, removed)

	_, ok := reg.LookupByCode(finished.Code)
	assert.False(t, ok, "stale finished room should be reaped")
	_, ok = reg.LookupByCode(active.Code)
	assert.True(t, ok, "active room should survive")
	_, ok = reg.LookupByCode(freshlyFinished.Code)
	assert.True(t, ok, "recently finished room should survive")
}

func TestMemoryStoreCollision(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Create(&model.Room{Code: "AAAA"}))
	assert.ErrorIs(t, store.Create(&model.Room{Code: "AAAA"}), ErrCodeCollision)
}

func lower(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'A' && c <= 'Z' {
			out[i] = c + 32
		}
	}
	return string(out)
}
