package model

import "time"

// Vote is one player's vote for the current round. An abstention carries an
// empty target.
type Vote struct {
	Target     string    `json:"target,omitempty"`
	Confidence int       `json:"confidence"`
	Abstained  bool      `json:"abstained"`
	At         time.Time `json:"-"`
}

// SpyGuess is the spy's location guess, mutually exclusive with the spy
// casting a normal vote.
type SpyGuess struct {
	LocationID string    `json:"location_id"`
	Correct    bool      `json:"correct"`
	At         time.Time `json:"-"`
}

// Tally is the aggregated vote result computed on entering REVEAL.
type Tally struct {
	VoteCounts  map[string]int `json:"vote_counts"`
	Convicted   string         `json:"convicted,omitempty"`
	MaxVotes    int            `json:"max_votes"`
	TotalVotes  int            `json:"total_votes"`
	Abstentions int            `json:"abstentions"`
}

// ScoreItem is one line of a player's round score breakdown.
type ScoreItem struct {
	Type       string `json:"type"`
	Target     string `json:"target,omitempty"`
	Confidence int    `json:"confidence,omitempty"`
	Points     int    `json:"points"`
	Correct    bool   `json:"correct,omitempty"`
}

// RoundScore is a player's score delta for a single round, recomputed from
// scratch every round.
type RoundScore struct {
	Points    int         `json:"points"`
	Outcome   string      `json:"outcome"`
	Breakdown []ScoreItem `json:"breakdown"`
}

// RoundRecord is one entry of the round-history log.
type RoundRecord struct {
	Round      int                   `json:"round"`
	Spy        string                `json:"spy"`
	LocationID string                `json:"location_id"`
	Convicted  string                `json:"convicted,omitempty"`
	SpyCaught  bool                  `json:"spy_caught"`
	Scores     map[string]RoundScore `json:"scores"`
}
