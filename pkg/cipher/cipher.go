// Package cipher encrypts and decrypts individual file payloads with a
// symmetric key. Calls hold no shared lock and may run fully in parallel
// with each other and with store operations.
package cipher

import (
	"bytes"
	"crypto/aes"
	aescipher "crypto/cipher"
	"crypto/sha256"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	appErrors "github.com/clearhours/claims-core/pkg/errors"
)

const (
	keyLen = 32
	ivLen  = aes.BlockSize

	deriveIterations = 600_000
)

// KeyProvider supplies the symmetric key material. Material is fixed per
// provider, not derived per claim; rotating keys means re-encrypting what
// they protect.
type KeyProvider interface {
	Material() (key, iv []byte, err error)
}

// StaticKeyProvider derives a fixed key/IV pair once from a secret and salt
// via PBKDF2-SHA256.
type StaticKeyProvider struct {
	key []byte
	iv  []byte
}

// NewStaticKeyProvider builds a provider from the configured secret and salt.
func NewStaticKeyProvider(secret, salt string) (*StaticKeyProvider, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "cipher secret is required")
	}
	if strings.TrimSpace(salt) == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "cipher salt is required")
	}

	material := pbkdf2.Key([]byte(secret), []byte(salt), deriveIterations, keyLen+ivLen, sha256.New)
	return &StaticKeyProvider{key: material[:keyLen], iv: material[keyLen:]}, nil
}

// Material returns copies so callers cannot clobber the derived state.
func (p *StaticKeyProvider) Material() (key, iv []byte, err error) {
	return append([]byte(nil), p.key...), append([]byte(nil), p.iv...), nil
}

// FileCipher streams byte payloads through an AES-CTR transform to and from
// files on disk.
type FileCipher struct {
	keys KeyProvider
}

// NewFileCipher wires a FileCipher to its key provider.
func NewFileCipher(keys KeyProvider) (*FileCipher, error) {
	if keys == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "key provider is required")
	}
	return &FileCipher{keys: keys}, nil
}

// Encrypt streams the entire input through the cipher and writes ciphertext
// to outputPath, creating or overwriting the file.
func (f *FileCipher) Encrypt(input io.Reader, outputPath string) error {
	if input == nil {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "input stream is required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return appErrors.Clone(appErrors.ErrInvalidArgument, "output path is required")
	}

	stream, err := f.stream()
	if err != nil {
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create encrypted file")
	}
	defer out.Close() //nolint:errcheck

	writer := &aescipher.StreamWriter{S: stream, W: out}
	if _, err := io.Copy(writer, input); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encrypt stream")
	}
	if err := out.Close(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "flush encrypted file")
	}
	return nil
}

// Decrypt streams the file at inputPath through the inverse transform and
// returns the full plaintext, positioned at its start.
func (f *FileCipher) Decrypt(inputPath string) (*bytes.Buffer, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrFileNotFound.Code, appErrors.ErrFileNotFound.Status,
				"Encrypted file not found: "+inputPath)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "open encrypted file")
	}
	defer in.Close() //nolint:errcheck

	stream, err := f.stream()
	if err != nil {
		return nil, err
	}

	plaintext := &bytes.Buffer{}
	reader := &aescipher.StreamReader{S: stream, R: in}
	if _, err := io.Copy(plaintext, reader); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "decrypt stream")
	}
	return plaintext, nil
}

// stream builds a fresh CTR stream; CTR is symmetric, so the same transform
// serves both directions.
func (f *FileCipher) stream() (aescipher.Stream, error) {
	key, iv, err := f.keys.Material()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load key material")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "init cipher")
	}
	if len(iv) != block.BlockSize() {
		return nil, appErrors.Clone(appErrors.ErrInvalidArgument, "iv length must match cipher block size")
	}
	return aescipher.NewCTR(block, iv), nil
}
