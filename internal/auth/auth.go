package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"molehunt/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// HostClaims are the JWT claims carried by a host token.
type HostClaims struct {
	HostID string `json:"host_id"`
	jwt.RegisteredClaims
}

// LoginResponse is returned on a successful host login.
type LoginResponse struct {
	Token  string `json:"token"`
	HostID string `json:"host_id"`
}

// Service handles host authentication. Player identity is handled by the
// game engine's session tokens, not JWTs; only the host display needs
// credential-based auth.
type Service struct {
	hostUsername string
	hostPassword string
	jwtSecret    []byte
}

// NewService builds the auth service from configuration.
func NewService(cfg *config.Config) *Service {
	return &Service{
		hostUsername: cfg.HostUsername,
		hostPassword: cfg.HostPassword,
		jwtSecret:    []byte(cfg.JWTSecret),
	}
}

// Login validates credentials and returns a signed host token.
func (s *Service) Login(username, password string) (*LoginResponse, error) {
	if username != s.hostUsername || password != s.hostPassword {
		return nil, ErrInvalidCredentials
	}

	hostID := "host_" + uuid.New().String()[:8]

	claims := &HostClaims{
		HostID: hostID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{Token: tokenString, HostID: hostID}, nil
}

// ValidateHostToken validates a host JWT and returns its claims.
func (s *Service) ValidateHostToken(tokenString string) (*HostClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &HostClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*HostClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
