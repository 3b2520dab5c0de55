package cipher

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/clearhours/claims-core/pkg/errors"
)

func newTestCipher(t *testing.T) *FileCipher {
	t.Helper()
	keys, err := NewStaticKeyProvider("test secret", "test salt")
	require.NoError(t, err)
	c, err := NewFileCipher(keys)
	require.NoError(t, err)
	return c
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := newTestCipher(t)
	dir := t.TempDir()

	large := make([]byte, 1<<16+17)
	_, err := rand.Read(large)
	require.NoError(t, err)

	cases := map[string][]byte{
		"empty":    {},
		"small":    []byte("hours worked: 10"),
		"binary":   {0x00, 0xff, 0x10, 0x00, 0x7f},
		"large":    large,
		"one_byte": {0x42},
	}

	for name, plaintext := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".enc")
			require.NoError(t, c.Encrypt(bytes.NewReader(plaintext), path))

			if len(plaintext) > 0 {
				raw, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.NotEqual(t, plaintext, raw)
			}

			decrypted, err := c.Decrypt(path)
			require.NoError(t, err)
			assert.Equal(t, plaintext, decrypted.Bytes())
		})
	}
}

func TestEncryptOverwritesExisting(t *testing.T) {
	c := newTestCipher(t)
	path := filepath.Join(t.TempDir(), "doc.enc")

	require.NoError(t, c.Encrypt(bytes.NewReader([]byte("first")), path))
	require.NoError(t, c.Encrypt(bytes.NewReader([]byte("second")), path))

	decrypted, err := c.Decrypt(path)
	require.NoError(t, err)
	assert.Equal(t, "second", decrypted.String())
}

func TestEncryptInvalidArguments(t *testing.T) {
	c := newTestCipher(t)

	err := c.Encrypt(nil, filepath.Join(t.TempDir(), "out.enc"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidArgument.Code, appErrors.FromError(err).Code)

	err = c.Encrypt(bytes.NewReader([]byte("x")), "   ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidArgument.Code, appErrors.FromError(err).Code)
}

func TestDecryptMissingFile(t *testing.T) {
	c := newTestCipher(t)

	_, err := c.Decrypt(filepath.Join(t.TempDir(), "missing.enc"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFileNotFound.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "Encrypted file not found")
}

func TestStaticKeyProviderRequiresInputs(t *testing.T) {
	_, err := NewStaticKeyProvider("", "salt")
	require.Error(t, err)
	_, err = NewStaticKeyProvider("secret", "  ")
	require.Error(t, err)
}

func TestStaticKeyProviderIsDeterministic(t *testing.T) {
	a, err := NewStaticKeyProvider("secret", "salt")
	require.NoError(t, err)
	b, err := NewStaticKeyProvider("secret", "salt")
	require.NoError(t, err)

	keyA, ivA, err := a.Material()
	require.NoError(t, err)
	keyB, ivB, err := b.Material()
	require.NoError(t, err)
	assert.Equal(t, keyA, keyB)
	assert.Equal(t, ivA, ivB)

	other, err := NewStaticKeyProvider("secret", "other salt")
	require.NoError(t, err)
	keyC, _, err := other.Material()
	require.NoError(t, err)
	assert.NotEqual(t, keyA, keyC)
}

func TestNewFileCipherRequiresProvider(t *testing.T) {
	_, err := NewFileCipher(nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidArgument.Code, appErrors.FromError(err).Code)
}
