package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDisabled     = errors.New("operator access is disabled")
	ErrUnauthorized = errors.New("invalid operator key")
)

// Service authenticates operators against a single bcrypt key hash.
type Service struct {
	keyHash string
	logger  zerolog.Logger
}

// NewService creates an auth service. An empty hash disables operator
// endpoints entirely.
func NewService(keyHash string, logger zerolog.Logger) *Service {
	return &Service{
		keyHash: strings.TrimSpace(keyHash),
		logger:  logger.With().Str("service", "auth").Logger(),
	}
}

func (s *Service) Enabled() bool {
	return s.keyHash != ""
}

// Authenticate checks a presented operator key.
func (s *Service) Authenticate(ctx context.Context, key string) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	if !VerifyKey(s.keyHash, key) {
		s.logger.Warn().Msg("operator key rejected")
		return ErrUnauthorized
	}
	return nil
}

// HashKey produces the value to place in OPERATOR_KEY_HASH.
func HashKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("key is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyKey(hash, key string) bool {
	if hash == "" || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
