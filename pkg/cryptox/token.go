package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

// TokenSize256 provides 256 bits of entropy (43 chars base64url).
const TokenSize256 = 32

// GenerateToken creates a cryptographically secure random token of the
// specified byte length, base64url encoded without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token.
// Recovery codes are stored only as fingerprints of their normalized form.
//
// The fingerprint is returned as a base64url-encoded string (43 chars).
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

const (
	recoveryAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	recoveryGroups     = 4
	recoveryGroupWidth = 4
)

// GenerateRecoveryCode returns a code in the XXXX-XXXX-XXXX-XXXX format using
// uppercase letters and digits.
func GenerateRecoveryCode() (string, error) {
	var b strings.Builder
	alphabetLen := big.NewInt(int64(len(recoveryAlphabet)))
	for i := range recoveryGroups * recoveryGroupWidth {
		if i > 0 && i%recoveryGroupWidth == 0 {
			b.WriteByte('-')
		}
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate recovery code: %w", err)
		}
		b.WriteByte(recoveryAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeRecoveryCode strips whitespace and dashes and uppercases the rest,
// so "abcd efgh-ijkl-mnop" and "ABCD-EFGH-IJKL-MNOP" hash the same.
func NormalizeRecoveryCode(code string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '-' || r == ' ' || r == '\t' || r == '\n' || r == '\r':
			return -1
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		default:
			return r
		}
	}, code)
}

// FingerprintRecoveryCode is the one-way function used both when codes are
// generated and when they are redeemed.
func FingerprintRecoveryCode(code string) string {
	return FingerprintToken(NormalizeRecoveryCode(code))
}

// ConstantTimeEqual compares two secrets without leaking where they differ.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
