package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molehunt/internal/model"
)

func startVotePhase(t *testing.T, e *Engine, spy string) {
	t.Helper()
	joinRoster(t, e)
	startGame(t, e)
	forceSecret(e, spy)
	require.NoError(t, e.CallVote("alice"))
	require.Equal(t, model.PhaseVote, e.Phase())
}

func TestRecordVoteValidation(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")

	assert.ErrorIs(t, e.RecordVote("mallory", "bob", 2), ErrNotInGame)
	assert.ErrorIs(t, e.RecordVote("alice", "alice", 2), ErrInvalidTarget)
	assert.ErrorIs(t, e.RecordVote("alice", "mallory", 2), ErrInvalidTarget)

	require.NoError(t, e.RecordVote("alice", "bob", 2))
	assert.ErrorIs(t, e.RecordVote("alice", "carol", 2), ErrAlreadyVoted)
}

func TestRecordVoteCoercesConfidence(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")

	require.NoError(t, e.RecordVote("alice", "bob", 0))
	require.NoError(t, e.RecordVote("bob", "alice", 17))

	e.mu.Lock()
	defer e.mu.Unlock()
	assert.Equal(t, 1, e.votes["alice"].Confidence)
	assert.Equal(t, 1, e.votes["bob"].Confidence)
}

func TestDisconnectedVoterRejected(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")

	e.mu.Lock()
	e.players["bob"].Connected = false
	e.mu.Unlock()

	assert.ErrorIs(t, e.RecordVote("bob", "alice", 2), ErrNotInGame)
}

func TestDisconnectedPlayersDoNotBlockVoteCompletion(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")

	e.mu.Lock()
	e.players["carol"].Connected = false
	e.mu.Unlock()

	require.NoError(t, e.RecordVote("alice", "dave", 2))
	require.NoError(t, e.RecordVote("bob", "dave", 2))
	require.NoError(t, e.RecordVote("dave", "alice", 1))

	assert.Equal(t, model.PhaseReveal, e.Phase())
}

func TestTallyTieBreaksLexicographically(t *testing.T) {
	e := newTestEngine(t)
	e.votes = map[string]*model.Vote{
		"p1": {Target: "bob", Confidence: 1},
		"p2": {Target: "bob", Confidence: 1},
		"p3": {Target: "alice", Confidence: 1},
		"p4": {Target: "alice", Confidence: 1},
		"p5": {Target: "carol", Confidence: 1},
	}
	e.computeTally()

	assert.Equal(t, "alice", e.tally.Convicted)
	assert.Equal(t, 2, e.tally.MaxVotes)
	assert.Equal(t, 5, e.tally.TotalVotes)
}

func TestTallyZeroVotesNoConviction(t *testing.T) {
	e := newTestEngine(t)
	e.votes = map[string]*model.Vote{
		"p1": {Abstained: true},
		"p2": {Abstained: true},
	}
	e.computeTally()

	assert.Empty(t, e.tally.Convicted)
	assert.Equal(t, 2, e.tally.Abstentions)
	assert.Zero(t, e.tally.TotalVotes)
}

func TestSpyGuessValidation(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")

	assert.ErrorIs(t, e.RecordSpyGuess("alice", "beach"), ErrNotSpy)
	assert.ErrorIs(t, e.RecordSpyGuess("mallory", "beach"), ErrNotInGame)
	assert.ErrorIs(t, e.RecordSpyGuess("dave", "atlantis"), ErrInvalidLocation)
}

func TestSpyGuessEndsVotingImmediately(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")

	e.mu.Lock()
	actual := e.secret.location.ID
	e.mu.Unlock()

	require.NoError(t, e.RecordSpyGuess("dave", actual))
	assert.Equal(t, model.PhaseReveal, e.Phase())

	e.mu.Lock()
	defer e.mu.Unlock()
	require.NotNil(t, e.spyGuess)
	assert.True(t, e.spyGuess.Correct)
}

func TestSpyGuessOnlyOnce(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")

	require.NoError(t, e.RecordSpyGuess("dave", "beach"))

	// Phase already moved on; the guard order still matters for the error.
	assert.ErrorIs(t, e.RecordSpyGuess("dave", "beach"), ErrInvalidPhase)
}

func TestSpyWhoVotedCannotGuess(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")

	require.NoError(t, e.RecordVote("dave", "alice", 1))
	assert.ErrorIs(t, e.RecordSpyGuess("dave", "beach"), ErrSpyAlreadyActed)
}
