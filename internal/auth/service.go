package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Service authenticates the dashboard user. The assistant is a
// single-operator tool, so the account lives in configuration rather
// than a user table; refresh tokens are tracked in memory.
type Service struct {
	username     string
	passwordHash string
	passwords    *PasswordManager
	tokens       *JWTManager

	mu            sync.Mutex
	refreshHashes map[string]time.Time // sha256(refresh token) -> expiry
}

// NewService creates the auth service for the configured operator
// account. The password is hashed on startup.
func NewService(username, password string, passwords *PasswordManager, tokens *JWTManager) (*Service, error) {
	hash, err := passwords.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &Service{
		username:      username,
		passwordHash:  hash,
		passwords:     passwords,
		tokens:        tokens,
		refreshHashes: make(map[string]time.Time),
	}, nil
}

// JWTManager exposes the token manager for HTTP middleware
func (s *Service) JWTManager() *JWTManager {
	return s.tokens
}

// Login verifies credentials and issues a token pair
func (s *Service) Login(username, password string) (*TokenPair, error) {
	if username != s.username || !s.passwords.VerifyPassword(password, s.passwordHash) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.GenerateTokenPair(UserClaims{
		UserID:   uuid.New().String(),
		Username: s.username,
		Role:     "operator",
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.refreshHashes[HashRefreshToken(pair.RefreshToken)] = time.Now().Add(s.tokens.refreshTokenDuration)
	s.mu.Unlock()
	return pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The old token
// is revoked on use.
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	hash := HashRefreshToken(refreshToken)

	s.mu.Lock()
	expiry, ok := s.refreshHashes[hash]
	if ok {
		delete(s.refreshHashes, hash)
	}
	s.mu.Unlock()

	if !ok || time.Now().After(expiry) {
		return nil, ErrInvalidToken
	}

	pair, err := s.tokens.GenerateTokenPair(UserClaims{
		UserID:   uuid.New().String(),
		Username: s.username,
		Role:     "operator",
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.refreshHashes[HashRefreshToken(pair.RefreshToken)] = time.Now().Add(s.tokens.refreshTokenDuration)
	s.mu.Unlock()
	return pair, nil
}

// Logout revokes a refresh token
func (s *Service) Logout(refreshToken string) {
	s.mu.Lock()
	delete(s.refreshHashes, HashRefreshToken(refreshToken))
	s.mu.Unlock()
}

// Validate checks an access token
func (s *Service) Validate(accessToken string) (*UserClaims, error) {
	return s.tokens.ValidateAccessToken(accessToken)
}
