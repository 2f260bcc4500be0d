package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molehunt/internal/model"
)

// settleRound drives the engine from VOTE through scoring so cumulative
// totals and history are written.
func settleRound(t *testing.T, e *Engine) {
	t.Helper()
	if e.Phase() == model.PhaseVote {
		expire(e, timerVote)
	}
	require.Equal(t, model.PhaseReveal, e.Phase())
	expire(e, timerRevealDelay)
	require.Equal(t, model.PhaseScoring, e.Phase())
}

func TestScoringCorrectVotesPayByConfidence(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")

	require.NoError(t, e.RecordVote("alice", "dave", 1))
	require.NoError(t, e.RecordVote("bob", "dave", 2))
	require.NoError(t, e.RecordVote("carol", "dave", 3))
	require.NoError(t, e.RecordVote("dave", "alice", 1))
	settleRound(t, e)

	e.mu.Lock()
	defer e.mu.Unlock()
	assert.Equal(t, 2, e.roundScores["alice"].Points)
	assert.Equal(t, 4, e.roundScores["bob"].Points)
	assert.Equal(t, 6, e.roundScores["carol"].Points)
	assert.Equal(t, -1, e.roundScores["dave"].Points)
	assert.Equal(t, 2, e.players["alice"].Score)
	assert.True(t, e.spyCaught)
}

func TestScoringWrongVotesCostByConfidence(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")

	require.NoError(t, e.RecordVote("alice", "bob", 1))
	require.NoError(t, e.RecordVote("bob", "carol", 2))
	require.NoError(t, e.RecordVote("carol", "bob", 3))
	require.NoError(t, e.RecordVote("dave", "bob", 1))
	settleRound(t, e)

	e.mu.Lock()
	defer e.mu.Unlock()
	assert.Equal(t, -1, e.roundScores["alice"].Points)
	assert.Equal(t, -2, e.roundScores["bob"].Points)
	assert.Equal(t, -3, e.roundScores["carol"].Points)
	assert.False(t, e.spyCaught)
	assert.Equal(t, "bob", e.convicted)
}

func TestScoringNoConvictionZeroesEveryone(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")
	settleRound(t, e) // vote timer expiry, all abstain

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, name := range testRoster {
		assert.Zero(t, e.roundScores[name].Points, name)
	}
	assert.Equal(t, "no_conviction", e.roundScores["alice"].Outcome)
}

func TestDoubleAgentBonus(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")

	// The spy throws max confidence at bob and drags the table with them.
	require.NoError(t, e.RecordVote("dave", "bob", 3))
	require.NoError(t, e.RecordVote("alice", "bob", 1))
	require.NoError(t, e.RecordVote("carol", "bob", 1))
	require.NoError(t, e.RecordVote("bob", "alice", 1))
	settleRound(t, e)

	e.mu.Lock()
	defer e.mu.Unlock()
	require.Equal(t, "bob", e.convicted)
	assert.Equal(t, 7, e.roundScores["dave"].Points) // -3 wrong vote +10 bonus
	assert.Equal(t, "double_agent", e.roundScores["dave"].Outcome)
}

func TestDoubleAgentBonusRequiresConvictionOfTarget(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")

	// Spy votes bob at confidence 3, but carol is the one convicted.
	require.NoError(t, e.RecordVote("dave", "bob", 3))
	require.NoError(t, e.RecordVote("alice", "carol", 1))
	require.NoError(t, e.RecordVote("bob", "carol", 1))
	require.NoError(t, e.RecordVote("carol", "alice", 1))
	settleRound(t, e)

	e.mu.Lock()
	defer e.mu.Unlock()
	require.Equal(t, "carol", e.convicted)
	assert.Equal(t, -3, e.roundScores["dave"].Points)
}

func TestDoubleAgentBonusRequiresMaxConfidence(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")

	require.NoError(t, e.RecordVote("dave", "bob", 2))
	require.NoError(t, e.RecordVote("alice", "bob", 1))
	require.NoError(t, e.RecordVote("carol", "bob", 1))
	require.NoError(t, e.RecordVote("bob", "alice", 1))
	settleRound(t, e)

	e.mu.Lock()
	defer e.mu.Unlock()
	require.Equal(t, "bob", e.convicted)
	assert.Equal(t, -2, e.roundScores["dave"].Points)
}

func TestSpyGuessScoring(t *testing.T) {
	cases := []struct {
		name    string
		correct bool
		points  int
	}{
		{"correct guess", true, 10},
		{"wrong guess", false, -5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(t)
			startVotePhase(t, e, "dave")

			// Votes cast before the guess are voided by the guess branch.
			require.NoError(t, e.RecordVote("alice", "dave", 3))

			e.mu.Lock()
			actual := e.secret.location.ID
			e.mu.Unlock()
			guess := actual
			if !tc.correct {
				guess = e.provider.LocationList("classic")[1].ID
			}

			require.NoError(t, e.RecordSpyGuess("dave", guess))
			settleRound(t, e)

			e.mu.Lock()
			defer e.mu.Unlock()
			assert.Equal(t, tc.points, e.roundScores["dave"].Points)
			assert.Zero(t, e.roundScores["alice"].Points)
			assert.Zero(t, e.roundScores["bob"].Points)
		})
	}
}

func TestCumulativeScoresAccumulateAcrossRounds(t *testing.T) {
	e := newTestEngine(t)
	startVotePhase(t, e, "dave")

	require.NoError(t, e.RecordVote("alice", "dave", 3))
	require.NoError(t, e.RecordVote("bob", "dave", 3))
	require.NoError(t, e.RecordVote("carol", "dave", 3))
	require.NoError(t, e.RecordVote("dave", "alice", 1))
	settleRound(t, e)
	expire(e, timerScoring)
	require.Equal(t, model.PhaseRoles, e.Phase())

	// Round 2 with the same forced spy and the same votes.
	expire(e, timerRoleDisplay)
	forceSecret(e, "dave")
	require.NoError(t, e.CallVote("alice"))
	require.NoError(t, e.RecordVote("alice", "dave", 3))
	require.NoError(t, e.RecordVote("bob", "dave", 1))
	require.NoError(t, e.RecordVote("carol", "dave", 1))
	require.NoError(t, e.RecordVote("dave", "alice", 1))
	settleRound(t, e)

	e.mu.Lock()
	defer e.mu.Unlock()
	assert.Equal(t, 12, e.players["alice"].Score)
	assert.Equal(t, 8, e.players["bob"].Score)
	assert.Equal(t, -2, e.players["dave"].Score)
	assert.Len(t, e.history, 2)
}

func TestGameStats(t *testing.T) {
	e := newTestEngine(t)
	joinRoster(t, e)

	e.mu.Lock()
	e.players["alice"].Score = 10
	e.players["bob"].Score = 10
	e.players["carol"].Score = 4
	e.history = []model.RoundRecord{
		{Round: 1, Spy: "dave", SpyCaught: true},
		{Round: 2, Spy: "alice", SpyCaught: false},
	}
	stats := e.gameStats()
	e.mu.Unlock()

	assert.Equal(t, []string{"alice", "bob"}, stats.Winners)
	assert.Equal(t, 10, stats.TopScore)
	assert.Equal(t, 2, stats.RoundsPlayed)
	assert.Equal(t, 1, stats.SpiesCaught)
}
