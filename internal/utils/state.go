package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidState = errors.New("invalid oauth state")

// StateClaims is the anti-forgery token carried through an OAuth2
// authorization round trip.
type StateClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// GenerateState signs a fresh state token valid for expiresIn.
func GenerateState(secretKey string, expiresIn time.Duration) (string, error) {
	nonce, err := RandomString(16)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := &StateClaims{
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
}

// ValidateState checks the signature and expiry of a state token.
func ValidateState(state, secretKey string) (*StateClaims, error) {
	token, err := jwt.ParseWithClaims(
		state,
		&StateClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidState
			}
			return []byte(secretKey), nil
		},
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidState, err)
	}

	claims, ok := token.Claims.(*StateClaims)
	if !ok || !token.Valid || claims.Nonce == "" {
		return nil, ErrInvalidState
	}
	return claims, nil
}
