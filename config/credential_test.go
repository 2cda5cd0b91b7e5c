package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveCredentialExplicitKey(t *testing.T) {
	assert := require.New(t)

	key, err := ResolveCredential("explicit", "legacy", "/nonexistent")
	assert.NoError(err)
	assert.Equal("explicit", key)
}

func TestResolveCredentialLegacyKey(t *testing.T) {
	assert := require.New(t)

	key, err := ResolveCredential("", "legacy", "/nonexistent")
	assert.NoError(err)
	assert.Equal("legacy", key)
}

func TestResolveCredentialTokenFile(t *testing.T) {
	assert := require.New(t)

	tokenFile := filepath.Join(t.TempDir(), "jwt")
	assert.NoError(os.WriteFile(tokenFile, []byte(`{"access_token": "abc"}`), 0o600))

	key, err := ResolveCredential("", "", tokenFile)
	assert.NoError(err)
	assert.Equal("abc", key)
}

func TestResolveCredentialMissing(t *testing.T) {
	assert := require.New(t)

	_, err := ResolveCredential("", "", filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(err, ErrMissingCredential)
}

func TestResolveCredentialUnusableTokenFile(t *testing.T) {
	assert := require.New(t)

	tokenFile := filepath.Join(t.TempDir(), "jwt")
	assert.NoError(os.WriteFile(tokenFile, []byte(`{"something": "else"}`), 0o600))

	_, err := ResolveCredential("", "", tokenFile)
	assert.ErrorIs(err, ErrMissingCredential)
}
