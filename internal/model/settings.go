package model

// Game configuration bounds.
const (
	MinRoundDurationMinutes = 1
	MaxRoundDurationMinutes = 30
	MinRounds               = 1
	MaxRounds               = 20

	MinPlayers    = 4
	MaxPlayers    = 10
	MinNameLength = 1
	MaxNameLength = 20
)

// Settings is the host-tunable game configuration. It may only change while
// the game is in the lobby.
type Settings struct {
	RoundDurationMinutes int    `json:"round_duration_minutes"`
	NumRounds            int    `json:"num_rounds"`
	LocationPack         string `json:"location_pack"`
}

// DefaultSettings returns the out-of-the-box game configuration.
func DefaultSettings() Settings {
	return Settings{
		RoundDurationMinutes: 7,
		NumRounds:            5,
		LocationPack:         "classic",
	}
}
