// Package auth mints and verifies the HS256 access tokens that carry a
// caller's identity to the gRPC layer.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fheregistry/internal/common"
	"github.com/golang-jwt/jwt/v5"
	gethcommon "github.com/luxfi/geth/common"
)

// Claims are the registered claims plus the caller's account address.
type Claims struct {
	jwt.RegisteredClaims
	Address string `json:"address"`
}

func GenerateToken(identity gethcommon.Address, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Address: identity.Hex(),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// IdentityFromToken returns common.ErrTokenExpired for expired tokens and
// wraps common.ErrInvalidToken for everything else that fails.
func IdentityFromToken(tokenString string, secretKey []byte) (gethcommon.Address, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return gethcommon.Address{}, common.ErrTokenExpired
		}
		return gethcommon.Address{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return gethcommon.Address{}, common.ErrInvalidToken
	}

	if !gethcommon.IsHexAddress(claims.Address) {
		return gethcommon.Address{}, fmt.Errorf("%w: bad address claim %q", common.ErrInvalidToken, claims.Address)
	}

	return gethcommon.HexToAddress(claims.Address), nil
}
