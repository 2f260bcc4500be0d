package game

import (
	"log"

	"molehunt/internal/model"
)

// initTurnOrder shuffles the connected players into this round's questioning
// order and seats the first questioner/answerer pair. Caller holds mu.
func (e *Engine) initTurnOrder() {
	names := e.connectedNames()
	shuffle(names)
	e.turnOrder = names
	e.questioner = ""
	e.answerer = ""
	if len(names) >= 2 {
		e.questioner = names[0]
		e.answerer = names[1]
	}
	log.Printf("Turn order initialized: %d players, %s asks first", len(names), e.questioner)
}

// AdvanceTurn rotates the questioner to the next seat in the turn order. The
// previous answerer becomes the new questioner, matching the ask-then-answer
// rhythm of the table game. If the roster changed underneath the order, it is
// rebuilt from the connected players.
func (e *Engine) AdvanceTurn(requester string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != model.PhaseQuestioning {
		return ErrInvalidPhase
	}
	if _, ok := e.players[requester]; !ok {
		return ErrNotInGame
	}

	idx := -1
	for i, name := range e.turnOrder {
		if name == e.answerer {
			if p, ok := e.players[name]; ok && p.Connected {
				idx = i
			}
			break
		}
	}
	if idx < 0 || len(e.turnOrder) < 2 {
		e.initTurnOrder()
		return nil
	}

	e.questioner = e.turnOrder[idx]
	for step := 1; step <= len(e.turnOrder); step++ {
		candidate := e.turnOrder[(idx+step)%len(e.turnOrder)]
		if candidate == e.questioner {
			continue
		}
		if p, ok := e.players[candidate]; ok && p.Connected {
			e.answerer = candidate
			return nil
		}
	}
	e.initTurnOrder()
	return nil
}
