// Package secrets reads credentials from the environment (optionally a
// .env file) with support for Fernet-encrypted values. Plaintext secrets
// live under their own key; encrypted secrets carry an _ENC suffix and
// are decrypted with the key in FERNET_KEY.
package secrets

import (
	"fmt"
	"os"

	"github.com/fernet/fernet-go"
	"github.com/subosito/gotenv"
)

// FernetKeyEnv names the environment variable holding the Fernet key
const FernetKeyEnv = "FERNET_KEY"

// Store provides access to environment-backed secrets
type Store struct{}

// NewStore loads the optional .env file and returns a secret store. A
// missing .env is not an error; the environment may already be set.
func NewStore(envFile string) (*Store, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := gotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
			}
		}
	}
	return &Store{}, nil
}

// Get returns the plaintext secret for key, or the default when unset
func (s *Store) Get(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// GetDecrypted fetches an encrypted secret and decrypts it with the
// Fernet key from the environment. Returns "" when either the secret or
// the key is missing.
func (s *Store) GetDecrypted(key string) (string, error) {
	encrypted := os.Getenv(key)
	keyText := os.Getenv(FernetKeyEnv)
	if encrypted == "" || keyText == "" {
		return "", nil
	}
	k, err := fernet.DecodeKey(keyText)
	if err != nil {
		return "", fmt.Errorf("invalid fernet key: %w", err)
	}
	plain := fernet.VerifyAndDecrypt([]byte(encrypted), 0, []*fernet.Key{k})
	if plain == nil {
		return "", fmt.Errorf("failed to decrypt secret %s", key)
	}
	return string(plain), nil
}

// Encrypt encrypts a plaintext with a freshly generated key. Both the
// key and the token are returned so the key can be stored alongside the
// .env entry.
func Encrypt(plaintext string) (key string, token string, err error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", "", fmt.Errorf("failed to generate key: %w", err)
	}
	tok, err := fernet.EncryptAndSign([]byte(plaintext), &k)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt: %w", err)
	}
	return k.Encode(), string(tok), nil
}

// EncryptWithKey encrypts a plaintext with an existing encoded key
func EncryptWithKey(plaintext, keyText string) (string, error) {
	k, err := fernet.DecodeKey(keyText)
	if err != nil {
		return "", fmt.Errorf("invalid fernet key: %w", err)
	}
	tok, err := fernet.EncryptAndSign([]byte(plaintext), k)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}
	return string(tok), nil
}
