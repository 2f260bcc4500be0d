package game

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"molehunt/internal/content"
	"molehunt/internal/model"
)

// TimerVoteCaller is the attribution recorded when the round timer, not a
// player, forces the vote phase.
const TimerVoteCaller = "[timer]"

// Broadcaster pushes personalized state to every connected participant. The
// websocket hub implements it; the indirection avoids an import cycle.
type Broadcaster interface {
	BroadcastState()
}

// Durations groups every fixed timing the engine uses. Tests shrink these to
// milliseconds.
type Durations struct {
	RoleDisplay     time.Duration
	Vote            time.Duration
	RevealDelay     time.Duration
	ScoringDisplay  time.Duration
	DisconnectGrace time.Duration
	ReconnectWindow time.Duration
	MinRemovalIdle  time.Duration
}

// DefaultDurations returns the production timings.
func DefaultDurations() Durations {
	return Durations{
		RoleDisplay:     5 * time.Second,
		Vote:            60 * time.Second,
		RevealDelay:     3 * time.Second,
		ScoringDisplay:  10 * time.Second,
		DisconnectGrace: 30 * time.Second,
		ReconnectWindow: 5 * time.Minute,
		MinRemovalIdle:  60 * time.Second,
	}
}

// roundSecret holds the per-round spy identity, location, and role
// assignments. It must never be serialized wholesale; only the snapshot
// projector may emit filtered fragments of it.
type roundSecret struct {
	spy      string
	location *content.Location
	roles    map[string]content.Role
}

// Engine is the root game session aggregate. All mutation happens under mu;
// inbound messages call the exported methods and timer expiries arrive as
// TimerEvents consumed by the Run loop, so every trigger is serialized.
type Engine struct {
	mu       sync.Mutex
	provider *content.Provider
	settings model.Settings
	dur      Durations

	sessionID string
	createdAt time.Time
	hostName  string

	phase         model.Phase
	previousPhase model.Phase              // valid only while phase == PAUSED
	pausedTimers  map[string]time.Duration // phase timers suspended by Pause
	gameStarted   bool
	currentRound  int

	players map[string]*model.Player // by display name
	tokens  map[string]*model.Player // by session token

	secret      roundSecret
	votes       map[string]*model.Vote
	spyGuess    *model.SpyGuess
	voteCaller  string
	tally       *model.Tally
	convicted   string
	spyCaught   bool
	roundScores map[string]model.RoundScore
	history     []model.RoundRecord

	turnOrder  []string
	questioner string
	answerer   string

	timers      *timerSet
	broadcaster Broadcaster
}

// NewEngine builds a fresh single-session engine around the injected content
// provider.
func NewEngine(provider *content.Provider, settings model.Settings, dur Durations) *Engine {
	e := &Engine{
		provider:    provider,
		settings:    settings,
		dur:         dur,
		sessionID:   uuid.New().String(),
		createdAt:   time.Now(),
		phase:       model.PhaseLobby,
		players:     make(map[string]*model.Player),
		tokens:      make(map[string]*model.Player),
		votes:       make(map[string]*model.Vote),
		roundScores: make(map[string]model.RoundScore),
		timers:      newTimerSet(),
	}
	log.Printf("Game session created: id=%s pack=%s", e.sessionID, settings.LocationPack)
	return e
}

// SessionID returns the session identifier assigned at creation.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

// SetBroadcaster wires the transport's broadcast hook.
func (e *Engine) SetBroadcaster(b Broadcaster) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.broadcaster = b
}

// Run consumes timer expiries until ctx is cancelled. Handlers run under the
// session mutex; a panicking handler is logged and must not take the engine
// down with it.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.timers.CancelAll()
			return
		case ev := <-e.timers.Events():
			e.dispatchTimer(ev)
			e.notify()
		}
	}
}

func (e *Engine) dispatchTimer(ev TimerEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Timer handler panic for %q: %v", ev.Name, r)
		}
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case ev.Name == timerRoleDisplay:
		e.finishRoleDisplay()
	case ev.Name == timerRound:
		if err := e.callVote(TimerVoteCaller); err != nil {
			log.Printf("Round timer expiry ignored: %v", err)
		}
	case ev.Name == timerVote:
		e.finishVoting()
	case ev.Name == timerRevealDelay:
		e.finishReveal()
	case ev.Name == timerScoring:
		e.finishScoring()
	case strings.HasPrefix(ev.Name, timerDisconnectGrace+":"):
		e.graceExpired(strings.TrimPrefix(ev.Name, timerDisconnectGrace+":"))
	case strings.HasPrefix(ev.Name, timerReconnectWindow+":"):
		e.windowExpired(strings.TrimPrefix(ev.Name, timerReconnectWindow+":"))
	default:
		log.Printf("Unknown timer expired: %s", ev.Name)
	}
}

// notify asks the transport to push fresh personalized state to everyone.
func (e *Engine) notify() {
	e.mu.Lock()
	b := e.broadcaster
	e.mu.Unlock()
	if b != nil {
		b.BroadcastState()
	}
}

// transitionTo validates the move against the transition table and applies
// it. PAUSED remembers the interrupted phase; resuming clears the memory.
// On rejection the phase is untouched.
func (e *Engine) transitionTo(to model.Phase) error {
	if !model.CanTransition(e.phase, to) {
		log.Printf("Invalid phase transition blocked: %s -> %s", e.phase, to)
		return ErrInvalidPhaseTransition
	}

	if to == model.PhasePaused {
		e.previousPhase = e.phase
	} else if e.phase == model.PhasePaused {
		e.previousPhase = ""
	}

	from := e.phase
	e.phase = to
	log.Printf("Phase transition: %s -> %s (players: %d)", from, to, len(e.players))
	return nil
}

// Phase returns the current phase.
func (e *Engine) Phase() model.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Pause interrupts the game from any phase, remembering where it was. Phase
// timers are suspended with their remaining time so a deadline cannot slip by
// while the game is frozen; the per-player disconnect timers keep their
// absolute deadlines and are left running.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.transitionTo(model.PhasePaused); err != nil {
		return err
	}
	e.pausedTimers = make(map[string]time.Duration)
	for _, name := range phaseTimers {
		if remaining, ok := e.timers.Remaining(name); ok {
			e.pausedTimers[name] = remaining
			e.timers.Cancel(name)
		}
	}
	return nil
}

// Resume returns a paused game to the phase it interrupted, re-arming the
// suspended phase timers with the time they had left.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != model.PhasePaused || e.previousPhase == "" {
		return ErrInvalidPhaseTransition
	}
	if err := e.transitionTo(e.previousPhase); err != nil {
		return err
	}
	for name, remaining := range e.pausedTimers {
		e.timers.Start(name, remaining)
	}
	e.pausedTimers = nil
	return nil
}

// Configure updates a single configuration field. Host-only enforcement lives
// at the transport; the engine guards phase and value ranges. Invalid values
// are rejected without mutation.
func (e *Engine) Configure(field string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != model.PhaseLobby {
		return ErrConfigLocked
	}

	switch field {
	case "round_duration_minutes":
		n, ok := asInt(value)
		if !ok || n < model.MinRoundDurationMinutes || n > model.MaxRoundDurationMinutes {
			return ErrConfigInvalidDuration
		}
		e.settings.RoundDurationMinutes = n
	case "num_rounds":
		n, ok := asInt(value)
		if !ok || n < model.MinRounds || n > model.MaxRounds {
			return ErrConfigInvalidRounds
		}
		e.settings.NumRounds = n
	case "location_pack":
		id, ok := value.(string)
		if !ok || !e.provider.Has(id) {
			return ErrConfigInvalidPack
		}
		e.settings.LocationPack = id
	default:
		return ErrInvalidMessage
	}

	log.Printf("Configuration updated: %s = %v", field, value)
	return nil
}

// asInt accepts the numeric types a decoded JSON value may arrive as. A
// fractional number is rejected, not truncated.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// StartGame moves the lobby into the first round: phase to ROLES, round 1,
// roles assigned, role-display timer running. A failed role assignment rolls
// the phase back to LOBBY so the session is never stuck mid-transition.
func (e *Engine) StartGame() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != model.PhaseLobby {
		return ErrInvalidPhase
	}
	if e.gameStarted {
		return ErrGameAlreadyStarted
	}

	connected := e.connectedCount()
	if connected < model.MinPlayers {
		return ErrInsufficientPlayers
	}
	if connected > model.MaxPlayers {
		return ErrGameFull
	}

	if err := e.transitionTo(model.PhaseRoles); err != nil {
		return err
	}
	e.currentRound = 1
	e.gameStarted = true

	if err := e.assignRoles(); err != nil {
		// Roll back the transition already applied; this is a rollback, not
		// a forward move, so the phase is restored directly.
		e.gameStarted = false
		e.currentRound = 0
		e.phase = model.PhaseLobby
		log.Printf("Game start aborted, rolled back to LOBBY: %v", err)
		return err
	}

	log.Printf("Game started: %d players, round 1/%d", connected, e.settings.NumRounds)
	e.timers.Start(timerRoleDisplay, e.dur.RoleDisplay)
	return nil
}

// finishRoleDisplay advances ROLES -> QUESTIONING once the role-display timer
// fires, shuffling the turn order and arming the round timer.
func (e *Engine) finishRoleDisplay() {
	if e.phase != model.PhaseRoles {
		return
	}
	e.initTurnOrder()
	if err := e.transitionTo(model.PhaseQuestioning); err != nil {
		log.Printf("Failed to enter QUESTIONING: %v", err)
		return
	}
	e.timers.Start(timerRound, time.Duration(e.settings.RoundDurationMinutes)*time.Minute)
}

// CallVote lets any player end questioning early. The round timer reaches the
// same path with TimerVoteCaller attribution.
func (e *Engine) CallVote(caller string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.callVote(caller)
}

func (e *Engine) callVote(caller string) error {
	if e.phase != model.PhaseQuestioning {
		return ErrInvalidPhase
	}
	e.voteCaller = caller
	e.timers.Cancel(timerRound)
	if err := e.transitionTo(model.PhaseVote); err != nil {
		return err
	}
	log.Printf("Vote called by %s", caller)
	e.timers.Start(timerVote, e.dur.Vote)
	return nil
}

// finishVoting handles vote-timer expiry: every connected player who has not
// acted is recorded as an abstention, then the reveal begins.
func (e *Engine) finishVoting() {
	if e.phase != model.PhaseVote {
		return
	}
	now := time.Now()
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
		e.votes[name] = &model.Vote{Abstained: true, At: now}
		log.Printf("Player %s abstained (timeout)", name)
	}
	e.enterReveal()
}

// enterReveal cancels the vote timer, moves to REVEAL, computes the tally,
// and arms the short reveal-delay timer that leads into scoring.
func (e *Engine) enterReveal() {
	e.timers.Cancel(timerVote)
	if err := e.transitionTo(model.PhaseReveal); err != nil {
		log.Printf("Failed to enter REVEAL: %v", err)
		return
	}
	e.computeTally()
	e.timers.Start(timerRevealDelay, e.dur.RevealDelay)
}

// finishReveal computes conviction and scores, appends the round to the
// history log, and moves into the scoring display.
func (e *Engine) finishReveal() {
	if e.phase != model.PhaseReveal {
		return
	}
	e.processConviction()
	if err := e.transitionTo(model.PhaseScoring); err != nil {
		log.Printf("Failed to enter SCORING: %v", err)
		return
	}
	e.timers.Start(timerScoring, e.dur.ScoringDisplay)
}

// finishScoring either starts the next round or ends the game, depending on
// the configured round count.
func (e *Engine) finishScoring() {
	if e.phase != model.PhaseScoring {
		return
	}
	if e.currentRound >= e.settings.NumRounds {
		if err := e.transitionTo(model.PhaseEnd); err != nil {
			log.Printf("Failed to enter END: %v", err)
		}
		return
	}
	e.startNextRound()
}

func (e *Engine) startNextRound() {
	e.resetRound()
	e.currentRound++

	if err := e.transitionTo(model.PhaseRoles); err != nil {
		log.Printf("Failed to start round %d: %v", e.currentRound, err)
		return
	}
	if err := e.assignRoles(); err != nil {
		// Too many players dropped mid-game to keep going; end the game
		// instead of leaving it stuck between rounds.
		log.Printf("Cannot continue to round %d (%v), ending game", e.currentRound, err)
		e.phase = model.PhaseEnd
		return
	}
	log.Printf("Started round %d of %d", e.currentRound, e.settings.NumRounds)
	e.timers.Start(timerRoleDisplay, e.dur.RoleDisplay)
}

// resetRound clears all per-round state. Cumulative scores stay on the
// players; round breakdowns are recomputed from scratch each round.
func (e *Engine) resetRound() {
	e.votes = make(map[string]*model.Vote)
	e.spyGuess = nil
	e.voteCaller = ""
	e.tally = nil
	e.convicted = ""
	e.spyCaught = false
	e.roundScores = make(map[string]model.RoundScore)
	e.secret = roundSecret{}
	e.turnOrder = nil
	e.questioner = ""
	e.answerer = ""
}

// NewGame returns an ended game to the lobby for another run with the same
// roster. Scores reset; sessions and configuration are kept.
func (e *Engine) NewGame() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != model.PhaseEnd {
		return ErrInvalidPhase
	}
	if err := e.transitionTo(model.PhaseLobby); err != nil {
		return err
	}
	e.resetRound()
	e.history = nil
	e.currentRound = 0
	e.gameStarted = false
	for _, p := range e.players {
		p.Score = 0
	}
	log.Printf("New game: returned to lobby with %d players", len(e.players))
	return nil
}

// IsHost reports whether the named player is the current host.
func (e *Engine) IsHost(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[name]
	return ok && p.IsHost
}

func (e *Engine) connectedCount() int {
	n := 0
	for _, p := range e.players {
		if p.Connected {
			n++
		}
	}
	return n
}

func (e *Engine) connectedNames() []string {
	names := make([]string, 0, len(e.players))
	for name, p := range e.players {
		if p.Connected {
			names = append(names, name)
		}
	}
	return names
}
