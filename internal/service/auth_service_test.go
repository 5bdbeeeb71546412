package service

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/fixly/internal/domain"
	"github.com/vedran77/fixly/internal/repository/memory"
	"github.com/vedran77/fixly/pkg/validator"
)

func TestRegisterAndLogin(t *testing.T) {
	users := memory.NewUserRepo()
	svc := NewAuthService(users, "secret")
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterInput{Email: " Pete@Example.com ", Name: "Pete", Password: "Passw0rdX", Role: "provider"})
	require.NoError(t, err)
	assert.True(t, validator.IsObjectID(resp.User.ID))
	assert.Equal(t, "pete@example.com", resp.User.Email)
	assert.Equal(t, domain.RoleProvider, resp.User.Role)
	assert.NotContains(t, resp.User.PasswordHash, "Passw0rdX")

	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (any, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	sub, err := token.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, sub)

	login, err := svc.Login(ctx, LoginInput{Email: "pete@example.com", Password: "Passw0rdX"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterDefaultsToCustomer(t *testing.T) {
	svc := NewAuthService(memory.NewUserRepo(), "secret")
	resp, err := svc.Register(context.Background(), RegisterInput{Email: "c@example.com", Name: "Cara", Password: "Passw0rdX"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, resp.User.Role)
}

func TestRegisterEmailTaken(t *testing.T) {
	svc := NewAuthService(seedUsers(), "secret")
	_, err := svc.Register(context.Background(), RegisterInput{Email: "PETE@example.com", Name: "Pete", Password: "Passw0rdX"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(memory.NewUserRepo(), "secret")
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "c@example.com", Name: "Cara", Password: "Passw0rdX"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "c@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCreds)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "Passw0rdX"})
	assert.ErrorIs(t, err, ErrInvalidCreds)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	assert.False(t, verifyPassword("x", "no-separator"))
	assert.False(t, verifyPassword("x", "!!!:???"))
}
