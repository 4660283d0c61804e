package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Get(t *testing.T) {
	t.Setenv("APP_USER", "admin")

	store, err := NewStore("")
	require.NoError(t, err)

	assert.Equal(t, "admin", store.Get("APP_USER", "fallback"))
	assert.Equal(t, "fallback", store.Get("APP_MISSING", "fallback"))
}

func TestEncryptRoundTrip(t *testing.T) {
	key, token, err := Encrypt("geheim")
	require.NoError(t, err)
	require.NotEmpty(t, key)
	require.NotEmpty(t, token)

	t.Setenv("SHEET_PASSWORD_ENC", token)
	t.Setenv(FernetKeyEnv, key)

	store, err := NewStore("")
	require.NoError(t, err)

	plain, err := store.GetDecrypted("SHEET_PASSWORD_ENC")
	require.NoError(t, err)
	assert.Equal(t, "geheim", plain)
}

func TestEncryptWithKey(t *testing.T) {
	key, _, err := Encrypt("x")
	require.NoError(t, err)

	token, err := EncryptWithKey("anderes geheimnis", key)
	require.NoError(t, err)

	t.Setenv("SECRET_ENC", token)
	t.Setenv(FernetKeyEnv, key)

	store, err := NewStore("")
	require.NoError(t, err)
	plain, err := store.GetDecrypted("SECRET_ENC")
	require.NoError(t, err)
	assert.Equal(t, "anderes geheimnis", plain)
}

func TestGetDecrypted_Missing(t *testing.T) {
	t.Setenv("SECRET_ENC", "")
	t.Setenv(FernetKeyEnv, "")

	store, err := NewStore("")
	require.NoError(t, err)

	plain, err := store.GetDecrypted("SECRET_ENC")
	require.NoError(t, err)
	assert.Empty(t, plain, "missing secret is not an error")
}

func TestGetDecrypted_BadKey(t *testing.T) {
	t.Setenv("SECRET_ENC", "not-a-token")
	t.Setenv(FernetKeyEnv, "not-a-key")

	store, err := NewStore("")
	require.NoError(t, err)

	_, err = store.GetDecrypted("SECRET_ENC")
	assert.Error(t, err)
}
