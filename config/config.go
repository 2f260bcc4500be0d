package config

import (
	"os"
	"strconv"

	"molehunt/internal/model"
)

type Config struct {
	HTTPPort string

	HostUsername string
	HostPassword string
	JWTSecret    string

	PackDir        string
	PublicBaseURL  string
	MaxConnections int

	RoundDurationMinutes int
	NumRounds            int
	LocationPack         string

	VoteSeconds            int
	DisconnectGraceSeconds int
	ReconnectWindowSeconds int
}

func Load() *Config {
	defaults := model.DefaultSettings()
	return &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		HostUsername:         getEnv("HOST_USERNAME", "admin"),
		HostPassword:         getEnv("HOST_PASSWORD", "password123"),
		JWTSecret:            getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		PackDir:              getEnv("PACK_DIR", ""),
		PublicBaseURL:        getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		MaxConnections:       getEnvInt("MAX_CONNECTIONS", 50),
		RoundDurationMinutes: getEnvInt("ROUND_DURATION_MINUTES", defaults.RoundDurationMinutes),
		NumRounds:            getEnvInt("NUM_ROUNDS", defaults.NumRounds),
		LocationPack:         getEnv("LOCATION_PACK", defaults.LocationPack),

		VoteSeconds:            getEnvInt("VOTE_SECONDS", 60),
		DisconnectGraceSeconds: getEnvInt("DISCONNECT_GRACE_SECONDS", 30),
		ReconnectWindowSeconds: getEnvInt("RECONNECT_WINDOW_SECONDS", 300),
	}
}

// Settings returns the game settings derived from the environment.
func (c *Config) Settings() model.Settings {
	return model.Settings{
		RoundDurationMinutes: c.RoundDurationMinutes,
		NumRounds:            c.NumRounds,
		LocationPack:         c.LocationPack,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
