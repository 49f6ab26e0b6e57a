package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/noteroom/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{ID: "user-123", Name: "Alice", Email: "alice@example.com"}
}

func TestGenerateAndVerify_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	u := testUser()

	tok, err := GenerateToken(u, secret, time.Hour)
	require.NoError(t, err)

	got, err := VerifyToken(tok, secret)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, u.Name, got.Name)
	require.Equal(t, u.Email, got.Email)
}

func TestVerifyToken_Missing(t *testing.T) {
	t.Parallel()

	_, err := VerifyToken("", []byte("k"))
	require.ErrorIs(t, err, ErrTokenMissing)
}

func TestVerifyToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken(testUser(), secret, -1*time.Second)
	require.NoError(t, err)

	_, err = VerifyToken(tok, secret)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(testUser(), []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken(tok, []byte("wrong-secret"))
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := VerifyToken("not.a.jwt", []byte("k"))
	require.ErrorIs(t, err, ErrTokenInvalid)
}
