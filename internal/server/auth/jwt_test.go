package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/fheregistry/internal/common"
	"github.com/golang-jwt/jwt/v5"
	gethcommon "github.com/luxfi/geth/common"
)

var alice = gethcommon.HexToAddress("0x00000000000000000000000000000000000a11ce")

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken(alice, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	got, err := IdentityFromToken(tok, secret)
	if err != nil {
		t.Fatalf("IdentityFromToken error: %v", err)
	}
	if got != alice {
		t.Fatalf("identity mismatch: got %s want %s", got.Hex(), alice.Hex())
	}
}

func TestIdentityFromToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	tok, err := GenerateToken(alice, secret, -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = IdentityFromToken(tok, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestIdentityFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(alice, []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = IdentityFromToken(tok, []byte("wrong-secret"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestIdentityFromToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := IdentityFromToken("not.a.jwt", []byte("k"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestIdentityFromToken_BadAddressClaim(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Address:          "bob",
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = IdentityFromToken(tok, secret)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestIdentityFromToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Address: alice.Hex()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = IdentityFromToken(tok, []byte("k"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}
