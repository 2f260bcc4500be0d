package game

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molehunt/internal/model"
)

func TestJoinValidatesNames(t *testing.T) {
	e := newTestEngine(t)

	cases := []string{"", strings.Repeat("x", 21), "a<b", `a"b`, "a;b", "a&b", "   "}
	for _, name := range cases {
		_, _, err := e.Join(name, false)
		assert.ErrorIs(t, err, ErrNameInvalid, "name %q", name)
	}

	_, _, err := e.Join("alice", false)
	assert.NoError(t, err)
}

func TestJoinTrimsWhitespace(t *testing.T) {
	e := newTestEngine(t)
	p, _, err := e.Join("  alice  ", false)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Name)
}

func TestJoinRejectedAfterStart(t *testing.T) {
	e := newTestEngine(t)
	joinRoster(t, e)
	require.NoError(t, e.StartGame())

	_, _, err := e.Join("eve", false)
	assert.ErrorIs(t, err, ErrGameAlreadyStarted)
}

func TestJoinCapacity(t *testing.T) {
	e := newTestEngine(t)
	for i := 0; i < model.MaxPlayers; i++ {
		_, _, err := e.Join("player"+string(rune('a'+i)), false)
		require.NoError(t, err)
	}

	_, _, err := e.Join("overflow", false)
	assert.ErrorIs(t, err, ErrGameFull)

	// Rejoining an existing name is a replacement, not a new seat.
	_, replaced, err := e.Join("playera", false)
	require.NoError(t, err)
	assert.True(t, replaced)
}

func TestDuplicateJoinInvalidatesOldToken(t *testing.T) {
	e := newTestEngine(t)
	first, _, err := e.Join("alice", false)
	require.NoError(t, err)

	second, replaced, err := e.Join("alice", false)
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.NotEqual(t, first.Token, second.Token)

	_, err = e.Restore(first.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	restored, err := e.Restore(second.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", restored.Name)
}

func TestDisconnectLifecycle(t *testing.T) {
	e := newTestEngine(t)
	p, _, err := e.Join("alice", false)
	require.NoError(t, err)

	e.ConnectionLost("alice")
	assert.True(t, e.timers.Active(playerTimer(timerDisconnectGrace, "alice")))
	assert.True(t, p.Connected)

	// Grace expiry marks the player disconnected and opens the window.
	expire(e, playerTimer(timerDisconnectGrace, "alice"))
	assert.False(t, p.Connected)
	assert.NotNil(t, p.DisconnectedAt)
	assert.True(t, e.timers.Active(playerTimer(timerReconnectWindow, "alice")))

	// Window expiry evicts.
	expire(e, playerTimer(timerReconnectWindow, "alice"))
	_, ok := e.PlayerByName("alice")
	assert.False(t, ok)
	_, err = e.Restore(p.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHeartbeatDuringGraceKeepsSession(t *testing.T) {
	e := newTestEngine(t)
	p, _, err := e.Join("alice", false)
	require.NoError(t, err)

	e.ConnectionLost("alice")
	restored, err := e.Heartbeat("alice")
	require.NoError(t, err)
	assert.False(t, restored)

	assert.False(t, e.timers.Active(playerTimer(timerDisconnectGrace, "alice")))
	assert.True(t, p.Connected)
	assert.Nil(t, p.DisconnectedAt)
}

func TestRestoreClearsDisconnectTimestamp(t *testing.T) {
	e := newTestEngine(t)
	p, _, err := e.Join("alice", false)
	require.NoError(t, err)

	e.ConnectionLost("alice")
	expire(e, playerTimer(timerDisconnectGrace, "alice"))
	require.False(t, p.Connected)

	restored, err := e.Restore(p.Token)
	require.NoError(t, err)
	assert.True(t, restored.Connected)
	assert.Nil(t, restored.DisconnectedAt)
	assert.False(t, e.timers.Active(playerTimer(timerReconnectWindow, "alice")))

	// A later disconnect measures a fresh window from its own timestamp.
	e.ConnectionLost("alice")
	expire(e, playerTimer(timerDisconnectGrace, "alice"))
	d, disconnected := restored.DisconnectDuration(time.Now())
	require.True(t, disconnected)
	assert.Less(t, d, time.Second)
}

func TestRestoreExpiredWindowEvicts(t *testing.T) {
	e := newTestEngine(t)
	p, _, err := e.Join("alice", false)
	require.NoError(t, err)

	e.ConnectionLost("alice")
	expire(e, playerTimer(timerDisconnectGrace, "alice"))

	// Backdate the disconnect past the window.
	e.mu.Lock()
	past := time.Now().Add(-e.dur.ReconnectWindow - time.Minute)
	p.DisconnectedAt = &past
	e.mu.Unlock()

	_, err = e.Restore(p.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, ok := e.PlayerByName("alice")
	assert.False(t, ok)
}

func TestRemovePlayerGuards(t *testing.T) {
	e := newTestEngine(t)
	joinRoster(t, e) // alice is host

	assert.ErrorIs(t, e.RemovePlayer("bob", "carol"), ErrNotHost)
	assert.ErrorIs(t, e.RemovePlayer("alice", "alice"), ErrInvalidTarget)
	assert.ErrorIs(t, e.RemovePlayer("mallory", "alice"), ErrPlayerNotFound)
	assert.ErrorIs(t, e.RemovePlayer("bob", "alice"), ErrCannotRemoveConnected)

	// Disconnected, but not long enough.
	e.ConnectionLost("bob")
	expire(e, playerTimer(timerDisconnectGrace, "bob"))
	assert.ErrorIs(t, e.RemovePlayer("bob", "alice"), ErrCannotRemoveConnected)

	// Backdate past the minimum idle period.
	e.mu.Lock()
	past := time.Now().Add(-e.dur.MinRemovalIdle - time.Minute)
	e.players["bob"].DisconnectedAt = &past
	e.mu.Unlock()

	require.NoError(t, e.RemovePlayer("bob", "alice"))
	_, ok := e.PlayerByName("bob")
	assert.False(t, ok)
}

func TestRemovePlayerLobbyOnly(t *testing.T) {
	e := newTestEngine(t)
	joinRoster(t, e)
	startGame(t, e)

	assert.ErrorIs(t, e.RemovePlayer("bob", "alice"), ErrInvalidPhase)
}
