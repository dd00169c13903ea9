package auth

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify_RoundTrip(t *testing.T) {
	tm, err := NewTokenManager("unit-test-secret", 45)
	require.NoError(t, err)

	token, expiresAt, err := tm.Generate("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.SubjectID)
	require.Equal(t, 45*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	require.WithinDuration(t, expiresAt, claims.ExpiresAt.Time, time.Second)
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", 60)
	require.Error(t, err)
}

func TestGenerate_RequiresSubject(t *testing.T) {
	tm, err := NewTokenManager("unit-test-secret", 60)
	require.NoError(t, err)

	_, _, err = tm.Generate("")
	require.Error(t, err)
}

func TestVerify_TamperedToken(t *testing.T) {
	tm, err := NewTokenManager("unit-test-secret", 60)
	require.NoError(t, err)

	token, _, err := tm.Generate("user-123")
	require.NoError(t, err)

	// Flip one character in each segment of the compact form.
	for _, pos := range []int{2, len(token) / 2, len(token) - 2} {
		tampered := []byte(token)
		if tampered[pos] == 'A' {
			tampered[pos] = 'B'
		} else {
			tampered[pos] = 'A'
		}
		_, err := tm.Verify(string(tampered))
		require.ErrorIs(t, err, ErrInvalidToken, "position %d", pos)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	tm, err := NewTokenManager("unit-test-secret", 60)
	require.NoError(t, err)
	other, err := NewTokenManager("another-secret", 60)
	require.NoError(t, err)

	token, _, err := tm.Generate("user-123")
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	tm := &TokenManager{secret: []byte("unit-test-secret"), ttl: -time.Minute}

	token, _, err := tm.Generate("user-123")
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_SingleFailureSignal(t *testing.T) {
	tm, err := NewTokenManager("unit-test-secret", 60)
	require.NoError(t, err)

	// HS512-signed token with otherwise valid claims.
	claims := jwt.MapClaims{
		"sub": "user-123",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("unit-test-secret"))
	require.NoError(t, err)

	inputs := []string{
		"",
		"not-a-token",
		"a.b.c",
		strings.Repeat("x", 512),
		wrongAlg,
	}
	for _, input := range inputs {
		_, err := tm.Verify(input)
		require.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestGenerateOpaqueToken_LengthAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		token, err := GenerateOpaqueToken()
		require.NoError(t, err)

		raw, err := hex.DecodeString(token)
		require.NoError(t, err)
		require.Len(t, raw, opaqueTokenBytes)

		_, dup := seen[token]
		require.False(t, dup, "collision after %d tokens", i)
		seen[token] = struct{}{}
	}
}
