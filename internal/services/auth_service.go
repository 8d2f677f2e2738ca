package services

import (
	"strings"
	"time"

	"letterdrop/config"
	letterdrop_errors "letterdrop/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService authenticates the single configured author account and
// issues the bearer tokens the admin endpoints require.
type AuthService struct {
	adminEmail        string
	adminPasswordHash string
	jwtSecret         []byte
	accessTTL         time.Duration
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		adminEmail:        strings.ToLower(cfg.AdminEmail),
		adminPasswordHash: cfg.AdminPasswordHash,
		jwtSecret:         []byte(cfg.JWTSecret),
		accessTTL:         time.Duration(cfg.JWTExpiryMin) * time.Minute,
	}
}

type AccessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (s *AuthService) Login(email, password string) (string, error) {
	if s.adminPasswordHash == "" {
		return "", letterdrop_errors.ErrUnauthorized
	}
	if !strings.EqualFold(email, s.adminEmail) {
		return "", letterdrop_errors.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminPasswordHash), []byte(password)); err != nil {
		return "", letterdrop_errors.ErrUnauthorized
	}

	now := time.Now()
	claims := AccessClaims{
		Email: s.adminEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.adminEmail,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, letterdrop_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, letterdrop_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return AccessClaims{}, letterdrop_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok {
		return AccessClaims{}, letterdrop_errors.ErrUnauthorized
	}
	return *claims, nil
}
