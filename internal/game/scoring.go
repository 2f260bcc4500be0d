package game

import (
	"log"
	"sort"

	"molehunt/internal/model"
)

// Scoring constants. Correct accusations pay out by confidence, wrong ones
// cost by confidence, and the spy has two ways to swing the round: the
// location gamble and the double-agent conviction bonus.
const (
	spyGuessCorrectPoints = 10
	spyGuessWrongPoints   = -5
	doubleAgentBonus      = 10
)

var (
	correctVotePoints = map[int]int{1: 2, 2: 4, 3: 6}
	wrongVotePoints   = map[int]int{1: -1, 2: -2, 3: -3}
)

// processConviction settles the round: conviction outcome, per-player score
// breakdowns, cumulative totals, and the history record. Caller holds mu.
func (e *Engine) processConviction() {
	e.spyCaught = e.convicted != "" && e.convicted == e.secret.spy
	e.roundScores = e.computeRoundScores()

	for name, rs := range e.roundScores {
		if p, ok := e.players[name]; ok {
			p.Score += rs.Points
		}
	}

	record := model.RoundRecord{
		Round:     e.currentRound,
		Spy:       e.secret.spy,
		Convicted: e.convicted,
		SpyCaught: e.spyCaught,
		Scores:    e.roundScores,
	}
	if e.secret.location != nil {
		record.LocationID = e.secret.location.ID
	}
	e.history = append(e.history, record)

	log.Printf("Round %d settled: convicted=%q caught=%v", e.currentRound, e.convicted, e.spyCaught)
}

// computeRoundScores builds the per-player round breakdown. A spy location
// guess preempts everything else; otherwise scores flow from the conviction,
// and a round with no conviction pays nothing to anyone.
func (e *Engine) computeRoundScores() map[string]model.RoundScore {
	scores := make(map[string]model.RoundScore, len(e.players))

	if e.spyGuess != nil {
		for name := range e.players {
			rs := model.RoundScore{Outcome: "spy_guessed"}
			if name == e.secret.spy {
				if e.spyGuess.Correct {
					rs.Points = spyGuessCorrectPoints
					rs.Outcome = "spy_guess_correct"
				} else {
					rs.Points = spyGuessWrongPoints
					rs.Outcome = "spy_guess_wrong"
				}
				rs.Breakdown = []model.ScoreItem{{
					Type:    "spy_guess",
					Target:  e.spyGuess.LocationID,
					Points:  rs.Points,
					Correct: e.spyGuess.Correct,
				}}
			}
			scores[name] = rs
		}
		return scores
	}

	if e.convicted == "" {
		for name := range e.players {
			scores[name] = model.RoundScore{Outcome: "no_conviction"}
		}
		return scores
	}

	for name := range e.players {
		v, voted := e.votes[name]
		if !voted {
			scores[name] = model.RoundScore{Outcome: "no_vote"}
			continue
		}
		if v.Abstained {
			scores[name] = model.RoundScore{Outcome: "abstained"}
			continue
		}

		correct := v.Target == e.secret.spy
		var points int
		if correct {
			points = correctVotePoints[v.Confidence]
		} else {
			points = wrongVotePoints[v.Confidence]
		}
		rs := model.RoundScore{
			Points:  points,
			Outcome: "voted_wrong",
			Breakdown: []model.ScoreItem{{
				Type:       "vote",
				Target:     v.Target,
				Confidence: v.Confidence,
				Points:     points,
				Correct:    correct,
			}},
		}
		if correct {
			rs.Outcome = "voted_correct"
		}

		// Double agent: the spy steered a max-confidence accusation onto
		// another player and the table convicted them.
		if name == e.secret.spy && v.Confidence == 3 && v.Target != e.secret.spy && v.Target == e.convicted {
			rs.Points += doubleAgentBonus
			rs.Outcome = "double_agent"
			rs.Breakdown = append(rs.Breakdown, model.ScoreItem{
				Type:   "double_agent",
				Target: v.Target,
				Points: doubleAgentBonus,
			})
		}
		scores[name] = rs
	}
	return scores
}

// GameStats summarizes a finished game for the end screen.
type GameStats struct {
	Winners      []string `json:"winners"`
	TopScore     int      `json:"top_score"`
	RoundsPlayed int      `json:"rounds_played"`
	SpiesCaught  int      `json:"spies_caught"`
}

// gameStats computes winners by cumulative score, ties included, sorted by
// name. Caller holds mu.
func (e *Engine) gameStats() GameStats {
	stats := GameStats{RoundsPlayed: len(e.history)}
	for _, rec := range e.history {
		if rec.SpyCaught {
			stats.SpiesCaught++
		}
	}

	first := true
	for _, p := range e.players {
		if first || p.Score > stats.TopScore {
			stats.TopScore = p.Score
			first = false
		}
	}
	if first {
		return stats
	}
	for name, p := range e.players {
		if p.Score == stats.TopScore {
			stats.Winners = append(stats.Winners, name)
		}
	}
	sort.Strings(stats.Winners)
	return stats
}
