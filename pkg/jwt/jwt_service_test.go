package jwt

import (
	"chef-agent-api/domain"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToken(t *testing.T) {
	svc := NewJWTServiceWithKey("secret", "https://issuer/", "chef-api")
	identity := domain.Identity{AuthID: "auth0|1", Email: "a@b.c", Name: "Ada", Surname: "L"}

	token, err := svc.GenerateToken(identity, time.Minute)
	require.NoError(t, err)
	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, identity, got)

	expired, err := svc.GenerateToken(identity, -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	other := NewJWTServiceWithKey("secret", "https://other/", "chef-api")
	foreign, err := other.GenerateToken(identity, time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = svc.ValidateToken("garbage")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestValidateToken_MissingClaims(t *testing.T) {
	svc := NewJWTServiceWithKey("secret", "", "")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "auth0|1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrTokenClaims)
}

func TestEmptySecretRejectsEverything(t *testing.T) {
	svc := NewJWTServiceWithKey("", "", "")
	_, err := svc.GenerateToken(domain.Identity{AuthID: "victim", Email: "v@x"}, time.Minute)
	assert.ErrorIs(t, err, domain.ErrTokenNoSecret)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, identityClaims{
		Email: "v@x",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "victim",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte(""))
	require.NoError(t, err)

	_, err = svc.ValidateToken(forged)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
