package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"), "hash should be in PHC format")
			require.Len(t, strings.Split(hash, "$"), 6)

			require.NoError(t, VerifyPassword(tt.password, hash))
			require.ErrorIs(t, VerifyPassword(tt.password+"x", hash), ErrPasswordMismatch)
		})
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, h := range []string{
		"",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
	} {
		err := VerifyPassword("pw", h)
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrPasswordMismatch, h)
	}
}

func TestPepperPersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets", "pepper")
	SetPepperPath(path)
	t.Cleanup(func() { SetPepperPath("") })

	require.NoError(t, LoadPepper())
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, first, 43, "pepper is a base64url token of keyLength bytes")

	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	// Reloading from disk must give the same pepper or old hashes stop verifying
	SetPepperPath(path)
	require.NoError(t, VerifyPassword("hunter2", hash))
}
