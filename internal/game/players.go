package game

import (
	"log"
	"regexp"
	"strings"
	"time"

	"molehunt/internal/model"
)

// forbiddenNameChars rejects markup and injection characters in display
// names. Length limits live in the model package.
var forbiddenNameChars = regexp.MustCompile(`[<>"'&;]`)

func validateName(name string) error {
	if len(name) < model.MinNameLength || len(name) > model.MaxNameLength {
		return ErrNameInvalid
	}
	if forbiddenNameChars.MatchString(name) {
		return ErrNameInvalid
	}
	return nil
}

// Join registers a new player in the lobby and returns their session. A join
// with an already-taken name replaces that session: the old token stops
// working immediately and the caller must close the superseded connection.
// The second return value reports whether a replacement happened.
func (e *Engine) Join(name string, isHost bool) (*model.Player, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, false, err
	}

	if e.phase == model.PhaseEnd {
		return nil, false, ErrGameEnded
	}
	if e.phase != model.PhaseLobby {
		return nil, false, ErrGameAlreadyStarted
	}

	old, replacing := e.players[name]
	if !replacing && len(e.players) >= model.MaxPlayers {
		return nil, false, ErrGameFull
	}
	if replacing {
		delete(e.tokens, old.Token)
		log.Printf("Player %s replaced by a new connection, old token invalidated", name)
	}

	// A replaced player may have been mid-disconnect; the fresh session
	// starts with a clean slate.
	e.timers.Cancel(playerTimer(timerDisconnectGrace, name))
	e.timers.Cancel(playerTimer(timerReconnectWindow, name))

	now := time.Now()
	p := &model.Player{
		Name:          name,
		Token:         newSessionToken(),
		Connected:     true,
		IsHost:        isHost,
		JoinedAt:      now,
		LastHeartbeat: now,
	}
	e.players[name] = p
	e.tokens[p.Token] = p
	if isHost {
		e.hostName = name
	}

	log.Printf("Player joined: %s (host=%v, total=%d)", name, isHost, len(e.players))
	return p, replacing, nil
}

// Restore resumes a session by token after a reconnection. An expired
// reconnection window evicts the player on the spot; an unknown token is
// rejected without leaking whether it ever existed.
func (e *Engine) Restore(token string) (*model.Player, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.tokens[token]
	if !ok {
		return nil, ErrInvalidToken
	}

	if d, disconnected := p.DisconnectDuration(time.Now()); disconnected && d >= e.dur.ReconnectWindow {
		e.evict(p.Name, "reconnect window expired")
		return nil, ErrSessionExpired
	}

	e.timers.Cancel(playerTimer(timerDisconnectGrace, p.Name))
	e.timers.Cancel(playerTimer(timerReconnectWindow, p.Name))
	p.MarkReconnected(time.Now())

	log.Printf("Player %s reconnected, session restored", p.Name)
	return p, nil
}

// Heartbeat records liveness from an authenticated connection. It cancels a
// pending grace timer and, if the player was already marked disconnected,
// restores them the same way a token reconnect would. The bool reports
// whether connectivity changed.
func (e *Engine) Heartbeat(name string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.players[name]
	if !ok {
		return false, ErrPlayerNotFound
	}
	p.LastHeartbeat = time.Now()
	e.timers.Cancel(playerTimer(timerDisconnectGrace, name))
	if !p.Connected {
		e.timers.Cancel(playerTimer(timerReconnectWindow, name))
		p.MarkReconnected(time.Now())
		log.Printf("Player %s restored by heartbeat", name)
		return true, nil
	}
	return false, nil
}

// ConnectionLost is called by the transport when a player's connection drops.
// The player is not marked disconnected yet; a grace timer starts, and only
// its expiry flips the flag. A reconnect inside the grace period leaves the
// session untouched.
func (e *Engine) ConnectionLost(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.players[name]
	if !ok || !p.Connected {
		return
	}
	log.Printf("Connection lost for %s, starting grace period", name)
	e.timers.Start(playerTimer(timerDisconnectGrace, name), e.dur.DisconnectGrace)
}

// graceExpired marks the player disconnected and opens their reconnection
// window. DisconnectedAt is only stamped on the first disconnect of a
// sequence, so the window measures from the original drop.
func (e *Engine) graceExpired(name string) {
	p, ok := e.players[name]
	if !ok {
		return
	}
	p.MarkDisconnected(time.Now())
	log.Printf("Player %s marked disconnected, reconnect window open", name)
	e.timers.Start(playerTimer(timerReconnectWindow, name), e.dur.ReconnectWindow)
}

// windowExpired evicts a player whose reconnection window ran out.
func (e *Engine) windowExpired(name string) {
	if _, ok := e.players[name]; !ok {
		return
	}
	e.evict(name, "reconnect window expired")
}

// evict removes the player and invalidates their token. Caller holds mu.
func (e *Engine) evict(name, reason string) {
	p, ok := e.players[name]
	if !ok {
		return
	}
	e.timers.Cancel(playerTimer(timerDisconnectGrace, name))
	e.timers.Cancel(playerTimer(timerReconnectWindow, name))
	delete(e.tokens, p.Token)
	delete(e.players, name)
	log.Printf("Player %s removed: %s", name, reason)
}

// RemovePlayer lets the host prune a long-disconnected player from the
// lobby. The target must have been disconnected for at least the minimum
// idle period, and the host cannot remove themselves.
func (e *Engine) RemovePlayer(target, requester string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != model.PhaseLobby {
		return ErrInvalidPhase
	}
	req, ok := e.players[requester]
	if !ok || !req.IsHost {
		return ErrNotHost
	}
	if target == requester {
		return ErrInvalidTarget
	}
	p, ok := e.players[target]
	if !ok {
		return ErrPlayerNotFound
	}
	d, disconnected := p.DisconnectDuration(time.Now())
	if !disconnected || d < e.dur.MinRemovalIdle {
		return ErrCannotRemoveConnected
	}

	e.timers.Cancel(playerTimer(timerDisconnectGrace, target))
	e.timers.Cancel(playerTimer(timerReconnectWindow, target))

	// The window timer may have fired concurrently and already evicted the
	// target; re-check before deleting.
	if _, still := e.players[target]; !still {
		return ErrPlayerNotFound
	}
	e.evict(target, "removed by host "+requester)
	return nil
}

// PlayerByName returns the named player's session, if present.
func (e *Engine) PlayerByName(name string) (*model.Player, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.players[name]
	return p, ok
}
