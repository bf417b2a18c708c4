package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/sentinel-secops/internal/domain"
)

func signToken(t *testing.T, key *rsa.PrivateKey, claims *domain.CustomClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func testClaims(ttl time.Duration) *domain.CustomClaims {
	return &domain.CustomClaims{
		UserID: "user-42",
		Scopes: map[string]bool{"files.read": true},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifyToken_RoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewBaseValidator(&key.PublicKey)

	signed := signToken(t, key, testClaims(time.Hour))

	claims, err := v.VerifyToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.True(t, claims.Scopes["files.read"])
}

func TestVerifyToken_StripsBearerPrefix(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewBaseValidator(&key.PublicKey)

	signed := signToken(t, key, testClaims(time.Hour))

	claims, err := v.VerifyToken("Bearer " + signed)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
}

func TestVerifyToken_RejectsExpired(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewBaseValidator(&key.PublicKey)

	signed := signToken(t, key, testClaims(-time.Minute))

	_, err = v.VerifyToken(signed)
	require.Error(t, err)
}

func TestVerifyToken_RejectsForeignKey(t *testing.T) {
	signerKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := NewBaseValidator(&otherKey.PublicKey)
	signed := signToken(t, signerKey, testClaims(time.Hour))

	_, err = v.VerifyToken(signed)
	require.Error(t, err)
}

func TestVerifyToken_RejectsGarbage(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewBaseValidator(&key.PublicKey)

	_, err = v.VerifyToken("not-a-jwt")
	require.Error(t, err)
}
