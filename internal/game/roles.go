package game

import (
	"fmt"
	"log"
	"sort"

	"molehunt/internal/content"
	"molehunt/internal/model"
)

// assignRoles picks the round's location, spy, and per-player roles using
// crypto/rand throughout. Only connected players receive assignments. Caller
// holds mu.
func (e *Engine) assignRoles() error {
	pack, ok := e.provider.Pack(e.settings.LocationPack)
	if !ok {
		return fmt.Errorf("%w: pack %q not loaded", ErrRoleAssignmentFailed, e.settings.LocationPack)
	}

	names := e.connectedNames()
	if len(names) < model.MinPlayers {
		return fmt.Errorf("%w: %d connected, need %d", ErrInsufficientPlayers, len(names), model.MinPlayers)
	}
	// Map iteration order is randomized by the runtime, not by CSPRNG; sort
	// before choosing so the pick depends only on crypto/rand.
	sort.Strings(names)

	location := choose(pack.Locations)
	if len(location.Roles) == 0 {
		return fmt.Errorf("%w: location %s has no roles", ErrRoleAssignmentFailed, location.ID)
	}
	spy := choose(names)

	roles := append([]content.Role(nil), location.Roles...)
	shuffle(roles)

	assigned := make(map[string]content.Role, len(names))
	i := 0
	for _, name := range names {
		if name == spy {
			continue
		}
		assigned[name] = roles[i%len(roles)]
		i++
	}

	e.secret = roundSecret{
		spy:      spy,
		location: &location,
		roles:    assigned,
	}

	log.Printf("Roles assigned for round %d: %d players", e.currentRound, len(names))
	return nil
}
