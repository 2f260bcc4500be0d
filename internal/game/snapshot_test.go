package game

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molehunt/internal/model"
)

func roleJSON(t *testing.T, e *Engine, viewer string) map[string]any {
	t.Helper()
	data, err := json.Marshal(e.Snapshot(viewer))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	role, _ := m["role"].(map[string]any)
	return role
}

func TestSpyViewNeverContainsLocationOrRole(t *testing.T) {
	e := newTestEngine(t)
	joinRoster(t, e)
	startGame(t, e)
	forceSecret(e, "dave")

	role := roleJSON(t, e, "dave")
	require.NotNil(t, role)
	assert.Equal(t, true, role["is_spy"])
	assert.NotContains(t, role, "location")
	assert.NotContains(t, role, "role")
	assert.NotContains(t, role, "hint")
	assert.Contains(t, role, "possible_locations")
}

func TestNonSpyViewNeverContainsCandidateList(t *testing.T) {
	e := newTestEngine(t)
	joinRoster(t, e)
	startGame(t, e)
	forceSecret(e, "dave")

	role := roleJSON(t, e, "alice")
	require.NotNil(t, role)
	assert.Equal(t, false, role["is_spy"])
	assert.NotContains(t, role, "possible_locations")
	assert.NotEmpty(t, role["location"])
	assert.NotEmpty(t, role["role"])
	assert.Contains(t, role, "other_roles")
}

func TestPublicViewCarriesNoRoundSecrets(t *testing.T) {
	e := newTestEngine(t)
	joinRoster(t, e)
	startGame(t, e)
	forceSecret(e, "dave")

	data, err := json.Marshal(e.Snapshot(PublicViewer))
	require.NoError(t, err)

	raw := string(data)
	assert.NotContains(t, raw, `"role":`)
	assert.NotContains(t, raw, `"is_spy"`)

	e.mu.Lock()
	location := e.secret.location.Name
	e.mu.Unlock()
	assert.NotContains(t, raw, location)
}

func TestSnapshotNeverLeaksSessionTokens(t *testing.T) {
	e := newTestEngine(t)
	joinRoster(t, e)

	e.mu.Lock()
	tokens := make([]string, 0, len(e.players))
	for _, p := range e.players {
		tokens = append(tokens, p.Token)
	}
	e.mu.Unlock()

	for _, viewer := range append([]string{PublicViewer}, testRoster...) {
		data, err := json.Marshal(e.Snapshot(viewer))
		require.NoError(t, err)
		for _, token := range tokens {
			assert.False(t, strings.Contains(string(data), token))
		}
	}
}

func TestRevealDisclosesEverything(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")
	require.NoError(t, e.RecordVote("alice", "dave", 2))
	expire(e, timerVote)
	require.Equal(t, model.PhaseReveal, e.Phase())

	for _, viewer := range []string{"dave", "alice", PublicViewer} {
		s := e.Snapshot(viewer)
		require.NotNil(t, s.Reveal, "viewer %q", viewer)
		assert.Equal(t, "dave", s.Reveal.Spy)
		assert.NotEmpty(t, s.Reveal.Location)
		assert.Equal(t, "dave", s.Reveal.Convicted)
	}
}

func TestRevealDisclosesFullVoteSet(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")
	require.NoError(t, e.RecordVote("alice", "dave", 2))
	require.NoError(t, e.RecordVote("bob", "carol", 1))
	expire(e, timerVote)
	require.Equal(t, model.PhaseReveal, e.Phase())

	s := e.Snapshot(PublicViewer)
	require.NotNil(t, s.Reveal)
	require.Len(t, s.Reveal.Votes, 4)

	assert.Equal(t, VoteRecord{Voter: "alice", Target: "dave", Confidence: 2}, s.Reveal.Votes[0])
	assert.Equal(t, VoteRecord{Voter: "bob", Target: "carol", Confidence: 1}, s.Reveal.Votes[1])
	assert.Equal(t, VoteRecord{Voter: "carol", Abstained: true}, s.Reveal.Votes[2])
	assert.Equal(t, VoteRecord{Voter: "dave", Abstained: true}, s.Reveal.Votes[3])

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	reveal := m["reveal"].(map[string]any)
	assert.Contains(t, reveal, "votes")
}

func TestLobbySnapshotCarriesRosterAndCapacity(t *testing.T) {
	e := newTestEngine(t)
	joinRoster(t, e)

	s := e.Snapshot(PublicViewer)
	assert.Equal(t, model.PhaseLobby, s.Phase)
	require.NotNil(t, s.Capacity)
	assert.Equal(t, model.MinPlayers, s.Capacity.Min)
	assert.Equal(t, model.MaxPlayers, s.Capacity.Max)
	require.Len(t, s.Players, 4)
	assert.Equal(t, "alice", s.Players[0].Name)
	assert.True(t, s.Players[0].IsHost)
	assert.Nil(t, s.Role)
}

func TestVoteViewTracksSubmissions(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")
	require.NoError(t, e.RecordVote("alice", "bob", 1))

	s := e.Snapshot("dave")
	require.NotNil(t, s.Vote)
	assert.Equal(t, "alice", s.Vote.Caller)
	assert.Equal(t, []string{"alice"}, s.Vote.Voted)
	assert.Equal(t, []string{"bob", "carol", "dave"}, s.Vote.Waiting)
	assert.True(t, s.Vote.CanGuess)

	s = e.Snapshot("alice")
	assert.False(t, s.Vote.CanGuess)
}

func TestPausedSnapshotKeepsEffectivePhaseViews(t *testing.T) {
	e := newTestEngine(t)
	joinRoster(t, e)
	startGame(t, e)
	forceSecret(e, "dave")
	require.NoError(t, e.Pause())

	s := e.Snapshot("alice")
	assert.Equal(t, model.PhasePaused, s.Phase)
	assert.Equal(t, model.PhaseQuestioning, s.PausedFrom)
	require.NotNil(t, s.Role)
	assert.False(t, s.Role.IsSpy)
}

func TestLeaderboardSortedDescendingTiesStable(t *testing.T) {
	e := newTestEngine(t)
	joinRoster(t, e)

	e.mu.Lock()
	e.players["bob"].Score = 5
	e.players["carol"].Score = 5
	e.players["dave"].Score = 9
	board := e.leaderboard("carol")
	e.mu.Unlock()

	require.Len(t, board, 4)
	assert.Equal(t, "dave", board[0].Name)
	assert.Equal(t, "bob", board[1].Name)
	assert.Equal(t, "carol", board[2].Name)
	assert.Equal(t, "alice", board[3].Name)
	assert.True(t, board[2].IsYou)
	assert.False(t, board[1].IsYou)
}

func TestTimerViewReportsActiveCountdown(t *testing.T) {
	e := newTestEngine(t)
	joinRoster(t, e)
	startGame(t, e)

	// The role-display expiry must have retired its timer; only the round
	// countdown is live now.
	assert.False(t, e.timers.Active(timerRoleDisplay))

	s := e.Snapshot("alice")
	require.NotNil(t, s.Timer)
	assert.Equal(t, timerRound, s.Timer.Name)
	assert.Greater(t, s.Timer.RemainingSeconds, 0)
}
