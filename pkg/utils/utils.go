package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTokenTTL = 24 * time.Hour

	PurposeSession      = "session"
	PurposeConfirmEmail = "confirm_email"
)

func init() {
	// iat and exp carry milliseconds; user revocation cutoffs compare against iat.
	jwt.TimePrecision = time.Millisecond
}

type Claims struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func GenerateToken(userID, role, secret string) (string, error) {
	return GenerateTokenWithTTL(userID, role, secret, DefaultTokenTTL)
}

func GenerateTokenWithTTL(userID, role, secret string, ttl time.Duration) (string, error) {
	return signClaims(userID, role, PurposeSession, secret, ttl)
}

// GenerateConfirmationToken issues a token that only ConfirmEmail accepts.
func GenerateConfirmationToken(userID, secret string, ttl time.Duration) (string, error) {
	return signClaims(userID, "", PurposeConfirmEmail, secret, ttl)
}

func signClaims(userID, role, purpose, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	claims := &Claims{
		UserID:  userID,
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken accepts session tokens only.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	claims, err := parseClaims(tokenString, secret)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeSession {
		return nil, errors.New("token is not a session token")
	}
	return claims, nil
}

func ValidateConfirmationToken(tokenString, secret string) (*Claims, error) {
	claims, err := parseClaims(tokenString, secret)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeConfirmEmail {
		return nil, errors.New("token is not a confirmation token")
	}
	return claims, nil
}

func parseClaims(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// ExpiresIn is the remaining lifetime of the token, zero when already expired.
func (c *Claims) ExpiresIn(now time.Time) time.Duration {
	if c == nil || c.ExpiresAt == nil {
		return 0
	}
	remaining := c.ExpiresAt.Time.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
