package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	require.NoError(t, SetEncryptionKey("unit-test-secret"))
	defer func() { key = nil }()

	sealed, err := Encrypt("sk-provider-key-123")
	require.NoError(t, err)
	assert.NotEqual(t, "sk-provider-key-123", sealed)

	plain, err := Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "sk-provider-key-123", plain)
}

func TestDecryptReturnsLegacyPlaintextAsIs(t *testing.T) {
	require.NoError(t, SetEncryptionKey("unit-test-secret"))
	defer func() { key = nil }()

	// Fila guardada antes de configurar la clave: no es base64 válido.
	plain, err := Decrypt("legacy plain api key!")
	require.NoError(t, err)
	assert.Equal(t, "legacy plain api key!", plain)
}

func TestPassthroughWithoutKey(t *testing.T) {
	key = nil

	sealed, err := Encrypt("visible")
	require.NoError(t, err)
	assert.Equal(t, "visible", sealed)

	plain, err := Decrypt("visible")
	require.NoError(t, err)
	assert.Equal(t, "visible", plain)
}
