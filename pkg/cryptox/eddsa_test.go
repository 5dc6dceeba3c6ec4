package cryptox_test

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/tenantgate/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateEd25519Key(t *testing.T) {
	pemBytes, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	block, _ := pem.Decode(pemBytes)
	require.NotNil(t, block)
	require.Equal(t, "PRIVATE KEY", block.Type)

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)
	_, ok := key.(ed25519.PrivateKey)
	require.True(t, ok)
}

func TestLoadOrCreateEd25519Key(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signing", "ed25519.pem")

	first, created, err := cryptox.LoadOrCreateEd25519Key(path)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := cryptox.LoadOrCreateEd25519Key(path)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first, second)
}
