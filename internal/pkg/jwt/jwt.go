package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims represents the JWT claims. SessionID ties the token to a server-side
// session row so a deleted session invalidates the token immediately.
type Claims struct {
	UserID      uint   `json:"user_id"`
	SessionID   string `json:"session_id"`
	Email       string `json:"email"`
	IsStaff     bool   `json:"is_staff"`
	IsLibrarian bool   `json:"is_librarian"`
	jwt.RegisteredClaims
}

// GenerateAccessToken generates a new access token bound to a session
func GenerateAccessToken(userID uint, sessionID, email string, isStaff, isLibrarian bool, secret string, expiryMinutes int) (string, error) {
	claims := Claims{
		UserID:      userID,
		SessionID:   sessionID,
		Email:       email,
		IsStaff:     isStaff,
		IsLibrarian: isLibrarian,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expiryMinutes) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "unibooks",
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken validates an access token and returns claims
func ValidateAccessToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrTokenInvalid
}
