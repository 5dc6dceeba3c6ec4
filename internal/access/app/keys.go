package app

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/tenantgate/pkg/cryptox"
	"github.com/aussiebroadwan/tenantgate/pkg/jwtx"
)

// AuthKeys is the signing half and the verifying half of the token keys.
type AuthKeys struct {
	KeySet   *jwtx.KeySet
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
}

// InitAuthKeys loads the Ed25519 signing key.
//
// With SigningKeyFile set the key is read from that file, or generated and
// written there on first boot, so tokens survive a restart. Without it the
// key is ephemeral and every restart invalidates all outstanding tokens.
//
// The master key that seals TOTP secrets is resolved here as well so a bad
// path fails startup instead of the first enrolment.
func InitAuthKeys(cfg Config, logger *slog.Logger) (*AuthKeys, error) {
	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
		logger.Info("master key path configured", "path", cfg.MasterKeyPath)
	}
	if err := cryptox.LoadMasterKey(); err != nil {
		return nil, fmt.Errorf("failed to load master key: %w", err)
	}

	var pemKey []byte
	if cfg.SigningKeyFile != "" {
		key, created, err := cryptox.LoadOrCreateEd25519Key(cfg.SigningKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}
		if created {
			logger.Info("generated signing key", "path", cfg.SigningKeyFile)
		}
		pemKey = key
	} else {
		key, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		pemKey = key
		logger.Warn("ephemeral signing key in use - all tokens are invalidated on restart")
	}

	// Parse once to learn the public key, the kid is derived from it so
	// it stays stable for a persisted key.
	probe, err := jwtx.NewSignerEdDSA("", pemKey)
	if err != nil {
		return nil, err
	}
	signer, err := jwtx.NewSignerEdDSA(keyID(probe.Public()), pemKey)
	if err != nil {
		return nil, err
	}

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)

	logger.Info("signing key loaded",
		"algorithm", "EdDSA",
		"kid", signer.KID(),
		"issuer", cfg.Issuer,
	)

	return &AuthKeys{
		KeySet:   keys,
		Signer:   signer,
		Verifier: jwtx.NewVerifierEdDSA(keys, cfg.Issuer),
	}, nil
}

// keyID is a short thumbprint of the public key.
func keyID(pub []byte) string {
	sum := sha256.Sum256(pub)
	return base64.RawURLEncoding.EncodeToString(sum[:12])
}
