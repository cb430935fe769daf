package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errMissingSecret = errors.New("JWT_SECRET is not set")

func tokenSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errMissingSecret
	}
	return []byte(secret), nil
}

type Claims struct {
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
	// Impersonator carries the superadmin's user id when the token was
	// issued through the impersonation endpoint.
	Impersonator string `json:"impersonator,omitempty"`
	jwt.RegisteredClaims
}

func GenerateToken(userID, companyID, role string) (string, error) {
	return generateToken(userID, companyID, role, "")
}

func GenerateImpersonationToken(userID, companyID, role, impersonatorID string) (string, error) {
	return generateToken(userID, companyID, role, impersonatorID)
}

func generateToken(userID, companyID, role, impersonatorID string) (string, error) {
	secret, err := tokenSecret()
	if err != nil {
		return "", err
	}

	now := time.Now()
	expiry := 7 * 24 * time.Hour
	if impersonatorID != "" {
		// Impersonation sessions are short-lived.
		expiry = 1 * time.Hour
	}

	claims := Claims{
		CompanyID:    companyID,
		Role:         role,
		Impersonator: impersonatorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseToken(tokenString string) (*Claims, error) {
	secret, err := tokenSecret()
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}
