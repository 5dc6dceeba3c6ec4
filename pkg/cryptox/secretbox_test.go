package cryptox_test

import (
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/tenantgate/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	cryptox.SetMasterKeyPath(filepath.Join(t.TempDir(), "master.key"))
	t.Cleanup(func() { cryptox.SetMasterKeyPath("") })

	secret := []byte("JBSWY3DPEHPK3PXP")

	sealed1, err := cryptox.Seal(secret)
	require.NoError(t, err)
	sealed2, err := cryptox.Seal(secret)
	require.NoError(t, err)

	// Random nonce per seal, so the same secret never looks the same at rest
	require.NotEqual(t, sealed1, sealed2)

	opened, err := cryptox.Open(sealed1)
	require.NoError(t, err)
	require.Equal(t, secret, opened)
}

func TestOpenRejectsTampering(t *testing.T) {
	sealed, err := cryptox.Seal([]byte("secret"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xFF
	_, err = cryptox.Open(sealed)
	require.Error(t, err)

	_, err = cryptox.Open([]byte("short"))
	require.Error(t, err)
}

func TestMasterKeyFileSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "master.key")
	cryptox.SetMasterKeyPath(path)
	t.Cleanup(func() { cryptox.SetMasterKeyPath("") })

	sealed, err := cryptox.Seal([]byte("persist me"))
	require.NoError(t, err)

	// Drop the cached key, the file on disk must bring back the same one
	cryptox.SetMasterKeyPath(path)
	opened, err := cryptox.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "persist me", string(opened))
}
