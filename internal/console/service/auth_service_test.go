package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/sentinel-secops/internal/domain"
	"github.com/xela07ax/sentinel-secops/internal/infra/auth"
)

type fakeUserRepo struct {
	users map[string]*domain.User
	err   error
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.users[username], nil
}

func newAuthFixture(t *testing.T, password string, ttl time.Duration) (*AuthService, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &fakeUserRepo{users: map[string]*domain.User{
		"operator": {
			ID:           "u-1",
			Username:     "operator",
			PasswordHash: string(hash),
			Scopes:       map[string]bool{"admin": true},
		},
	}}
	return NewAuthService(repo, key, ttl), key
}

func TestGenerateToken_ValidCredentials(t *testing.T) {
	svc, key := newAuthFixture(t, "s3cret", 0)

	resp, err := svc.GenerateToken(context.Background(), "operator", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Positive(t, resp.ExpiresIn)

	// Токен должен проходить проверку открытым ключом той же пары
	validator := auth.NewBaseValidator(&key.PublicKey)
	claims, err := validator.VerifyToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.True(t, claims.Scopes["admin"])
	assert.Equal(t, "sentinel-console", claims.Issuer)
}

func TestGenerateToken_HonorsConfiguredTTL(t *testing.T) {
	svc, key := newAuthFixture(t, "s3cret", 15*time.Minute)

	resp, err := svc.GenerateToken(context.Background(), "operator", "s3cret")
	require.NoError(t, err)
	assert.InDelta(t, (15 * time.Minute).Seconds(), float64(resp.ExpiresIn), 5)

	validator := auth.NewBaseValidator(&key.PublicKey)
	claims, err := validator.VerifyToken(resp.AccessToken)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestGenerateToken_WrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t, "s3cret", 0)

	_, err := svc.GenerateToken(context.Background(), "operator", "wrong")
	require.Error(t, err)
}

func TestGenerateToken_UnknownUser(t *testing.T) {
	svc, _ := newAuthFixture(t, "s3cret", 0)

	_, err := svc.GenerateToken(context.Background(), "ghost", "s3cret")
	require.Error(t, err)
}

func TestGenerateToken_RepoFailureIsOpaque(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	svc := NewAuthService(&fakeUserRepo{err: errors.New("db down")}, key, 0)

	_, err = svc.GenerateToken(context.Background(), "operator", "s3cret")
	require.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error(), "storage errors must not leak")
}
