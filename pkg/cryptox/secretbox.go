package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// MasterKeyEnv can carry the master key material when no file is configured.
const MasterKeyEnv = "ACCESS_MASTER_KEY"

var (
	masterMu   sync.Mutex
	masterKey  []byte
	masterPath string
)

// SetMasterKeyPath configures where the master key is loaded from, creating
// it on first boot. It resets any key already cached.
func SetMasterKeyPath(path string) {
	masterMu.Lock()
	defer masterMu.Unlock()
	masterPath = path
	masterKey = nil
}

// LoadMasterKey resolves the master key eagerly, see getMasterKey.
func LoadMasterKey() error {
	_, err := getMasterKey()
	return err
}

// getMasterKey derives a 32-byte AES-256 key from, in order, the key file,
// the ACCESS_MASTER_KEY variable, or an ephemeral random key. Sealed TOTP
// secrets do not survive a restart with the ephemeral key.
func getMasterKey() ([]byte, error) {
	masterMu.Lock()
	defer masterMu.Unlock()

	if masterKey != nil {
		return masterKey, nil
	}

	var material []byte
	switch {
	case masterPath != "":
		data, err := readOrCreateKeyFile(masterPath)
		if err != nil {
			return nil, fmt.Errorf("cryptox: master key file: %w", err)
		}
		material = data
	case os.Getenv(MasterKeyEnv) != "":
		material = []byte(os.Getenv(MasterKeyEnv))
	default:
		material = make([]byte, 32)
		if _, err := rand.Read(material); err != nil {
			return nil, fmt.Errorf("cryptox: ephemeral master key: %w", err)
		}
	}

	sum := sha256.Sum256(material)
	masterKey = sum[:]
	return masterKey, nil
}

func readOrCreateKeyFile(path string) ([]byte, error) {
	path = filepath.Clean(path)
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	secret, err := GenerateToken(keyLength)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(secret), 0o600); err != nil {
		return nil, err
	}
	return []byte(secret), nil
}

func newGCM() (cipher.AEAD, error) {
	key, err := getMasterKey()
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext with AES-256-GCM under the master key.
// The output format is: [12-byte nonce][ciphertext][16-byte auth tag].
func Seal(plaintext []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptox: generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal, failing if the data was tampered with or sealed under
// a different master key.
func Open(sealed []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}

	n := gcm.NonceSize()
	if len(sealed) < n {
		return nil, errors.New("cryptox: ciphertext too short")
	}
	plaintext, err := gcm.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("cryptox: decryption failed: %w", err)
	}
	return plaintext, nil
}
