package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/devilbiswajit/VideoStream/internal/domain/entities"
)

var ErrInvalidToken = errors.New("token is invalid or expired")

// Pair bundles the two tokens issued on login and refresh.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// JWTService signs and verifies the access/refresh token pair. Secrets and
// lifetimes are injected from config; the two token kinds use separate
// secrets so one cannot stand in for the other.
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewJWTService(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) *JWTService {
	return &JWTService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *JWTService) GenerateAccessToken(user *entities.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"_id":      user.ID.Hex(),
		"username": user.Username,
		"email":    user.Email,
		"iat":      now.Unix(),
		"exp":      now.Add(s.accessExpiry).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
}

func (s *JWTService) GenerateRefreshToken(user *entities.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"_id": user.ID.Hex(),
		"iat": now.Unix(),
		"exp": now.Add(s.refreshExpiry).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
}

// GeneratePair issues both tokens for the user.
func (s *JWTService) GeneratePair(user *entities.User) (*Pair, error) {
	access, err := s.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.GenerateRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccessToken returns the embedded user id (hex) if the token checks out.
func (s *JWTService) VerifyAccessToken(tokenString string) (string, error) {
	return s.verify(tokenString, s.accessSecret)
}

// VerifyRefreshToken returns the embedded user id (hex) if the token checks out.
func (s *JWTService) VerifyRefreshToken(tokenString string) (string, error) {
	return s.verify(tokenString, s.refreshSecret)
}

func (s *JWTService) verify(tokenString string, secret []byte) (string, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	id, ok := claims["_id"].(string)
	if !ok || id == "" {
		return "", ErrInvalidToken
	}
	return id, nil
}

// AccessExpiry exposes the access token lifetime for cookie Max-Age.
func (s *JWTService) AccessExpiry() time.Duration { return s.accessExpiry }

// RefreshExpiry exposes the refresh token lifetime for cookie Max-Age.
func (s *JWTService) RefreshExpiry() time.Duration { return s.refreshExpiry }
