package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.NewString()
	roleID := uuid.NewString()

	token, err := GenerateAccessToken(userID, roleID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, roleID, claims.RoleID)
	assert.Equal(t, "trustguard", claims.Issuer)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	_, err := VerifyToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = VerifyToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSetSecret(t *testing.T) {
	SetSecret("config-loaded-secret")
	token, err := GenerateAccessToken(uuid.NewString(), uuid.NewString())
	require.NoError(t, err)
	_, err = VerifyToken(token)
	require.NoError(t, err)

	// Tokens minted under the old key die with it.
	SetSecret("rotated-secret")
	_, err = VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// A blank secret leaves the installed key alone.
	SetSecret("")
	fresh, err := GenerateAccessToken(uuid.NewString(), uuid.NewString())
	require.NoError(t, err)
	_, err = VerifyToken(fresh)
	assert.NoError(t, err)
}
