package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	issuer := NewIssuer("test-secret-key", time.Hour)

	token, err := issuer.Issue(1, "alice", "student")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "student", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokensHaveUniqueJTI(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	first, err := issuer.Issue(1, "alice", "student")
	require.NoError(t, err)
	second, err := issuer.Issue(1, "alice", "student")
	require.NoError(t, err)

	a, err := issuer.Validate(first)
	require.NoError(t, err)
	b, err := issuer.Validate(second)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := NewIssuer("secret1", time.Hour).Issue(1, "alice", "student")
	require.NoError(t, err)

	_, err = NewIssuer("secret2", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateMalformed(t *testing.T) {
	_, err := NewIssuer("secret", time.Hour).Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Issue(1, "alice", "student")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Hour).Validate(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpiry(t *testing.T) {
	issuer := NewIssuer("secret", 0)
	assert.Equal(t, DefaultTokenTTL, issuer.TTL())

	token, err := issuer.Issue(1, "alice", "student")
	require.NoError(t, err)
	claims, err := issuer.Validate(token)
	require.NoError(t, err)

	diff := time.Now().Add(DefaultTokenTTL).Sub(claims.ExpiresAt.Time)
	assert.Less(t, diff.Abs(), 5*time.Second)
}
