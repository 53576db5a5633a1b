package utils

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
)

// SecretSpec describes one secret the server reads from the environment
type SecretSpec struct {
	EnvVar  string
	Bytes   int
	Purpose string
}

// Secret is a generated value for a SecretSpec
type Secret struct {
	SecretSpec
	Value string
}

// ServerSecrets lists the secrets the server refuses to start without.
// The webhook key is one full SHA-512 block so HMAC uses it without hashing it down.
var ServerSecrets = []SecretSpec{
	{EnvVar: "JWT_SECRET", Bytes: 32, Purpose: "signs admin session tokens (HS256)"},
	{EnvVar: "PAYMENT_WEBHOOK_SECRET", Bytes: sha512.BlockSize, Purpose: "verifies X-Signature on payment webhooks (HMAC-SHA512)"},
}

// GenerateSecret returns n random bytes, hex encoded
func GenerateSecret(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("secret size must be positive, got %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateSecrets produces one value per spec, in order
func GenerateSecrets(specs []SecretSpec) ([]Secret, error) {
	secrets := make([]Secret, 0, len(specs))
	for _, spec := range specs {
		value, err := GenerateSecret(spec.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s: %w", spec.EnvVar, err)
		}
		secrets = append(secrets, Secret{SecretSpec: spec, Value: value})
	}
	return secrets, nil
}
