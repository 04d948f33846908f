package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	j := &JWTer{Secret: []byte("test-secret"), TTL: time.Hour}

	token, err := j.Issue(42, "jane@example.com", "ROLE MEMBER")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := j.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "ROLE MEMBER", claims.Role)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	j := &JWTer{Secret: []byte("test-secret"), TTL: -time.Minute}

	token, err := j.Issue(1, "old@example.com", "ROLE MEMBER")
	require.NoError(t, err)

	_, err = j.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	issuer := &JWTer{Secret: []byte("secret-a"), TTL: time.Hour}
	verifier := &JWTer{Secret: []byte("secret-b"), TTL: time.Hour}

	token, err := issuer.Issue(1, "a@example.com", "ROLE ADMIN")
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, CheckPassword("hunter22", hash))
	assert.False(t, CheckPassword("hunter23", hash))
	assert.False(t, CheckPassword("", hash))
}
