package model

import "time"

// Player represents a participant's session in the game. The session token is
// the only credential for reconnection and must never appear in broadcasts.
type Player struct {
	Name           string
	Token          string
	Connected      bool
	IsHost         bool
	Score          int
	JoinedAt       time.Time
	LastHeartbeat  time.Time
	DisconnectedAt *time.Time
}

// MarkDisconnected flags the player offline and records the timestamp of the
// first disconnect of a continuous offline period. Subsequent calls while
// already offline keep the original timestamp so the reconnection window is
// measured from the triggering disconnect.
func (p *Player) MarkDisconnected(now time.Time) {
	if !p.Connected {
		return
	}
	p.Connected = false
	t := now
	p.DisconnectedAt = &t
}

// MarkReconnected restores connectivity and clears the disconnect timestamp,
// granting a fresh reconnection window on the next disconnect.
func (p *Player) MarkReconnected(now time.Time) {
	p.Connected = true
	p.DisconnectedAt = nil
	p.LastHeartbeat = now
}

// DisconnectDuration returns how long the player has been offline, or false
// if the player is connected.
func (p *Player) DisconnectDuration(now time.Time) (time.Duration, bool) {
	if p.Connected || p.DisconnectedAt == nil {
		return 0, false
	}
	return now.Sub(*p.DisconnectedAt), true
}
