package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

// AccessTokenValidity is how long a minted token remains usable.
const AccessTokenValidity = 24 * time.Hour

// GenerateToken mints an HS256 access token carrying the user's id, role and
// display name.
func GenerateToken(userID uuid.UUID, role, name, secret string) (string, error) {
	claims := jwt.MapClaims{
		"id":   userID.String(),
		"role": role,
		"name": name,
		"exp":  time.Now().Add(AccessTokenValidity).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAndGetClaims parses and verifies an access token.
func ValidateAndGetClaims(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
