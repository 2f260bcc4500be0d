package game

import (
	"sort"
	"time"

	"molehunt/internal/content"
	"molehunt/internal/model"
)

// PlayerInfo is the public roster entry for one player.
type PlayerInfo struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	IsHost    bool   `json:"is_host"`
	Score     int    `json:"score"`
}

// RoleView is the viewer's private role card. For the spy it carries only the
// candidate location list; for everyone else it carries the location and role
// but never the candidate list. The unused fields are omitted from the JSON
// entirely, not sent empty.
type RoleView struct {
	IsSpy             bool                  `json:"is_spy"`
	Location          string                `json:"location,omitempty"`
	Role              string                `json:"role,omitempty"`
	Hint              string                `json:"hint,omitempty"`
	OtherRoles        []string              `json:"other_roles,omitempty"`
	PossibleLocations []content.LocationRef `json:"possible_locations,omitempty"`
}

// TurnView identifies the current questioner/answerer pair.
type TurnView struct {
	Questioner string   `json:"questioner"`
	Answerer   string   `json:"answerer"`
	Order      []string `json:"order"`
}

// TimerView reports the active countdown, drift-free.
type TimerView struct {
	Name             string `json:"name"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// VoteView is the public voting status: who called the vote and who has
// acted. Vote targets stay hidden until the reveal.
type VoteView struct {
	Caller   string   `json:"caller"`
	Voted    []string `json:"voted"`
	Waiting  []string `json:"waiting"`
	CanGuess bool     `json:"can_guess,omitempty"`
}

// VoteRecord is one voter's disclosed ballot in the reveal.
type VoteRecord struct {
	Voter      string `json:"voter"`
	Target     string `json:"target,omitempty"`
	Confidence int    `json:"confidence,omitempty"`
	Abstained  bool   `json:"abstained,omitempty"`
}

// RevealView discloses the round's secrets once the vote closes: the full
// per-voter vote set, not just the aggregate counts.
type RevealView struct {
	Spy        string            `json:"spy"`
	Location   string            `json:"location"`
	LocationID string            `json:"location_id"`
	Roles      map[string]string `json:"roles"`
	Votes      []VoteRecord      `json:"votes"`
	VoteCounts map[string]int    `json:"vote_counts"`
	Convicted  string            `json:"convicted,omitempty"`
	SpyCaught  bool              `json:"spy_caught"`
	SpyGuess   *model.SpyGuess   `json:"spy_guess,omitempty"`
}

// ScoringView carries the settled round breakdown.
type ScoringView struct {
	Round  int                         `json:"round"`
	Scores map[string]model.RoundScore `json:"scores"`
}

// EndView is the final standings screen.
type EndView struct {
	Stats   GameStats           `json:"stats"`
	History []model.RoundRecord `json:"history"`
}

// LeaderboardEntry is one row of the standings, flagged if it belongs to the
// requesting viewer.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	IsYou bool   `json:"is_you,omitempty"`
}

// Capacity tells lobby clients the player bounds.
type Capacity struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Snapshot is one viewer's complete picture of the session. Every field that
// could leak round secrets is populated per viewer; serializing a spy's
// snapshot must never contain the location, and a public snapshot must never
// contain any role data before the reveal.
type Snapshot struct {
	SessionID   string             `json:"session_id"`
	Phase       model.Phase        `json:"phase"`
	PausedFrom  model.Phase        `json:"paused_from,omitempty"`
	Round       int                `json:"round"`
	TotalRounds int                `json:"total_rounds"`
	Settings    model.Settings     `json:"settings"`
	Players     []PlayerInfo       `json:"players"`
	You         string             `json:"you,omitempty"`
	Timer       *TimerView         `json:"timer,omitempty"`
	Role        *RoleView          `json:"role,omitempty"`
	Turn        *TurnView          `json:"turn,omitempty"`
	Vote        *VoteView          `json:"vote,omitempty"`
	Reveal      *RevealView        `json:"reveal,omitempty"`
	Scoring     *ScoringView       `json:"scoring,omitempty"`
	End         *EndView           `json:"end,omitempty"`
	Leaderboard []LeaderboardEntry `json:"leaderboard,omitempty"`
	Capacity    *Capacity          `json:"capacity,omitempty"`
}

// PublicViewer is the viewer name used for spectator and host-display
// snapshots. It receives no role card in any pre-reveal phase.
const PublicViewer = ""

// Snapshot projects the session state for one viewer. All filtering of round
// secrets happens here and only here; the rest of the engine never hands
// secret state to the transport.
func (e *Engine) Snapshot(viewer string) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	phase := e.phase
	effective := phase
	if phase == model.PhasePaused {
		effective = e.previousPhase
	}

	s := Snapshot{
		SessionID:   e.sessionID,
		Phase:       phase,
		Round:       e.currentRound,
		TotalRounds: e.settings.NumRounds,
		Settings:    e.settings,
		Players:     e.roster(),
		You:         viewer,
	}
	if phase == model.PhasePaused {
		s.PausedFrom = e.previousPhase
	}
	s.Timer = e.timerView()

	switch effective {
	case model.PhaseLobby:
		s.Capacity = &Capacity{Min: model.MinPlayers, Max: model.MaxPlayers}
	case model.PhaseRoles:
		s.Role = e.roleView(viewer)
	case model.PhaseQuestioning:
		s.Role = e.roleView(viewer)
		s.Turn = &TurnView{
			Questioner: e.questioner,
			Answerer:   e.answerer,
			Order:      append([]string(nil), e.turnOrder...),
		}
	case model.PhaseVote:
		s.Role = e.roleView(viewer)
		s.Vote = e.voteView(viewer)
	case model.PhaseReveal:
		s.Reveal = e.revealView()
	case model.PhaseScoring:
		s.Reveal = e.revealView()
		s.Scoring = &ScoringView{Round: e.currentRound, Scores: e.roundScores}
		s.Leaderboard = e.leaderboard(viewer)
	case model.PhaseEnd:
		stats := e.gameStats()
		s.End = &EndView{Stats: stats, History: e.history}
		s.Leaderboard = e.leaderboard(viewer)
	}
	return s
}

// leaderboard sorts the roster descending by score. The sort is stable so
// equal scores keep their name order, and the viewer's own row is flagged.
func (e *Engine) leaderboard(viewer string) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(e.players))
	for _, info := range e.roster() {
		entries = append(entries, LeaderboardEntry{
			Name:  info.Name,
			Score: info.Score,
			IsYou: info.Name == viewer && viewer != PublicViewer,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	return entries
}

func (e *Engine) roster() []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(e.players))
	for _, p := range e.players {
		infos = append(infos, PlayerInfo{
			Name:      p.Name,
			Connected: p.Connected,
			IsHost:    p.IsHost,
			Score:     p.Score,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// roleView builds the viewer's role card. Spectators and unknown viewers get
// nothing. The spy branch and the non-spy branch populate disjoint field
// sets; with omitempty that keeps the forbidden keys out of the wire format,
// not just empty.
func (e *Engine) roleView(viewer string) *RoleView {
	if viewer == PublicViewer {
		return nil
	}
	if _, ok := e.players[viewer]; !ok {
		return nil
	}
	if e.secret.location == nil {
		return nil
	}

	if viewer == e.secret.spy {
		return &RoleView{
			IsSpy:             true,
			PossibleLocations: e.provider.LocationList(e.settings.LocationPack),
		}
	}

	role, ok := e.secret.roles[viewer]
	if !ok {
		// Joined-then-disconnected edge: in the roster but not in this
		// round's assignment. No card.
		return nil
	}
	others := make([]string, 0, len(e.secret.location.Roles))
	for _, r := range e.secret.location.Roles {
		if r.Name != role.Name {
			others = append(others, r.Name)
		}
	}
	return &RoleView{
		IsSpy:      false,
		Location:   e.secret.location.Name,
		Role:       role.Name,
		Hint:       role.Hint,
		OtherRoles: others,
	}
}

func (e *Engine) voteView(viewer string) *VoteView {
	v := &VoteView{Caller: e.voteCaller}
	for name, p := range e.players {
		if _, voted := e.votes[name]; voted {
			v.Voted = append(v.Voted, name)
		} else if p.Connected {
			v.Waiting = append(v.Waiting, name)
		}
	}
	sort.Strings(v.Voted)
	sort.Strings(v.Waiting)
	if viewer != PublicViewer && viewer == e.secret.spy && e.spyGuess == nil {
		if _, voted := e.votes[viewer]; !voted {
			v.CanGuess = true
		}
	}
	return v
}

func (e *Engine) revealView() *RevealView {
	rv := &RevealView{
		Spy:       e.secret.spy,
		Convicted: e.convicted,
		SpyCaught: e.spyCaught,
		SpyGuess:  e.spyGuess,
		Roles:     make(map[string]string, len(e.secret.roles)),
	}
	if e.secret.location != nil {
		rv.Location = e.secret.location.Name
		rv.LocationID = e.secret.location.ID
	}
	for name, role := range e.secret.roles {
		rv.Roles[name] = role.Name
	}
	rv.Votes = make([]VoteRecord, 0, len(e.votes))
	for voter, v := range e.votes {
		rv.Votes = append(rv.Votes, VoteRecord{
			Voter:      voter,
			Target:     v.Target,
			Confidence: v.Confidence,
			Abstained:  v.Abstained,
		})
	}
	sort.Slice(rv.Votes, func(i, j int) bool { return rv.Votes[i].Voter < rv.Votes[j].Voter })
	if e.tally != nil {
		rv.VoteCounts = e.tally.VoteCounts
	}
	return rv
}

// timerView exposes whichever phase countdown is active. Player-scoped
// timers (grace, reconnect windows) are internal and never surfaced.
func (e *Engine) timerView() *TimerView {
	for _, name := range phaseTimers {
		if remaining, ok := e.timers.Remaining(name); ok {
			return &TimerView{
				Name:             name,
				RemainingSeconds: int(remaining / time.Second),
			}
		}
	}
	return nil
}
