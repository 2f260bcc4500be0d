package game

import (
	"log"
	"sort"
	"time"

	"molehunt/internal/model"
)

// RecordVote stores one player's accusation during the VOTE phase. Each
// player votes once, for a known player other than themselves. A confidence
// outside 1..3 is coerced to 1 rather than rejected. Recording the final
// outstanding connected-player vote ends the phase early.
func (e *Engine) RecordVote(voter, target string, confidence int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != model.PhaseVote {
		return ErrInvalidPhase
	}
	p, ok := e.players[voter]
	if !ok {
		return ErrNotInGame
	}
	if !p.Connected {
		return ErrNotInGame
	}
	if _, voted := e.votes[voter]; voted {
		return ErrAlreadyVoted
	}
	if target == voter {
		return ErrInvalidTarget
	}
	if _, ok := e.players[target]; !ok {
		return ErrInvalidTarget
	}
	if confidence < 1 || confidence > 3 {
		confidence = 1
	}

	e.votes[voter] = &model.Vote{
		Target:     target,
		Confidence: confidence,
		At:         time.Now(),
	}
	log.Printf("Vote recorded: %s -> %s (confidence %d)", voter, target, confidence)

	if e.allVotesIn() {
		e.enterReveal()
	}
	return nil
}

// allVotesIn reports whether every connected player has acted. Disconnected
// players never block vote completion; a spy who has guessed counts as done.
func (e *Engine) allVotesIn() bool {
	for name, p := range e.players {
		if !p.Connected {
			continue
		}
		if _, voted := e.votes[name]; voted {
			continue
		}
		if e.spyGuess != nil && name == e.secret.spy {
			continue
		}
		return false
	}
	return true
}

// RecordSpyGuess lets the spy gamble on the location instead of voting. The
// guess ends the vote phase immediately and preempts conviction scoring for
// the round.
func (e *Engine) RecordSpyGuess(player, locationID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != model.PhaseVote {
		return ErrInvalidPhase
	}
	if _, ok := e.players[player]; !ok {
		return ErrNotInGame
	}
	if player != e.secret.spy {
		return ErrNotSpy
	}
	if e.spyGuess != nil {
		return ErrSpyAlreadyActed
	}
	if _, voted := e.votes[player]; voted {
		return ErrSpyAlreadyActed
	}
	if !e.knownLocation(locationID) {
		return ErrInvalidLocation
	}

	e.spyGuess = &model.SpyGuess{
		LocationID: locationID,
		Correct:    e.secret.location != nil && locationID == e.secret.location.ID,
		At:         time.Now(),
	}
	log.Printf("Spy guessed location %s (correct=%v)", locationID, e.spyGuess.Correct)
	e.enterReveal()
	return nil
}

func (e *Engine) knownLocation(id string) bool {
	pack, ok := e.provider.Pack(e.settings.LocationPack)
	if !ok {
		return false
	}
	for _, loc := range pack.Locations {
		if loc.ID == id {
			return true
		}
	}
	return false
}

// computeTally counts votes per target and picks the convicted player: the
// strict-majority-free plurality winner, ties broken by lexicographically
// smallest name. Abstentions count toward nothing. Zero cast votes means no
// conviction. Caller holds mu.
func (e *Engine) computeTally() {
	t := &model.Tally{VoteCounts: make(map[string]int)}
	for _, v := range e.votes {
		if v.Abstained {
			t.Abstentions++
			continue
		}
		t.VoteCounts[v.Target]++
		t.TotalVotes++
	}

	targets := make([]string, 0, len(t.VoteCounts))
	for target := range t.VoteCounts {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	for _, target := range targets {
		if t.VoteCounts[target] > t.MaxVotes {
			t.MaxVotes = t.VoteCounts[target]
			t.Convicted = target
		}
	}

	e.tally = t
	e.convicted = t.Convicted
	log.Printf("Tally: %d votes, %d abstentions, convicted=%q", t.TotalVotes, t.Abstentions, t.Convicted)
}
