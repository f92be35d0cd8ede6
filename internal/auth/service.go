package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

const tokenTTL = 24 * time.Hour

// Service issues viewer tokens and checks the optional access key that
// guards viewer creation.
type Service struct {
	jwtSecret     []byte
	accessKeyHash []byte
	now           func() time.Time
}

// NewService creates a service. An empty accessKeyHash disables the key check.
func NewService(jwtSecret, accessKeyHash string) *Service {
	return &Service{
		jwtSecret:     []byte(jwtSecret),
		accessKeyHash: []byte(accessKeyHash),
		now:           time.Now,
	}
}

// HashAccessKey returns the bcrypt hash to put in ACCESS_KEY_HASH.
func HashAccessKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), 12)
	if err != nil {
		return "", fmt.Errorf("hash access key: %w", err)
	}
	return string(hash), nil
}

// KeyRequired reports whether viewer creation needs an access key.
func (s *Service) KeyRequired() bool {
	return len(s.accessKeyHash) > 0
}

// CheckAccessKey verifies key against the configured hash.
func (s *Service) CheckAccessKey(key string) error {
	if !s.KeyRequired() {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(s.accessKeyHash, []byte(key)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// IssueToken returns a signed token scoped to one viewer.
func (s *Service) IssueToken(viewerID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": viewerID,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken returns the viewer ID the token is scoped to.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	viewerID, ok := claims["sub"].(string)
	if !ok || viewerID == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return viewerID, nil
}
