// Package aead provides the AEAD algorithms of the HPKE registry behind one
// interface, plus the export-only placeholder.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrOpen is returned for every failed Open. It does not say whether the
	// tag, the length or the key was wrong.
	ErrOpen = errors.New("aead: message authentication failed")

	// ErrExportOnly is returned when an export-only AEAD is asked to seal or open.
	ErrExportOnly = errors.New("aead: export-only suite cannot seal or open")

	// ErrInvalidKeySize is returned when the key does not match Nk.
	ErrInvalidKeySize = errors.New("aead: invalid key size")

	// ErrInvalidNonceSize is returned when the nonce does not match Nn.
	ErrInvalidNonceSize = errors.New("aead: invalid nonce size")
)

// ExportOnlyID is the registry value for "no AEAD".
const ExportOnlyID uint16 = 0xffff

// Algorithm is an AEAD with fixed parameters.
type Algorithm struct {
	id        uint16
	name      string
	keySize   int
	nonceSize int
	tagSize   int
	newCipher func(key []byte) (cipher.AEAD, error)
}

// Registered algorithms.
var (
	AES128GCM = &Algorithm{id: 0x0001, name: "AES-128-GCM", keySize: 16, nonceSize: 12, tagSize: 16, newCipher: newGCM}
	AES256GCM = &Algorithm{id: 0x0002, name: "AES-256-GCM", keySize: 32, nonceSize: 12, tagSize: 16, newCipher: newGCM}

	ChaCha20Poly1305 = &Algorithm{
		id:        0x0003,
		name:      "ChaCha20-Poly1305",
		keySize:   chacha20poly1305.KeySize,
		nonceSize: chacha20poly1305.NonceSize,
		tagSize:   chacha20poly1305.Overhead,
		newCipher: chacha20poly1305.New,
	}

	// ExportOnly carries Nk = Nn = Nt = 0 and can only feed the exporter.
	ExportOnly = &Algorithm{id: ExportOnlyID, name: "Export-only"}
)

// ByID returns the algorithm registered under id.
func ByID(id uint16) (*Algorithm, bool) {
	switch id {
	case AES128GCM.id:
		return AES128GCM, true
	case AES256GCM.id:
		return AES256GCM, true
	case ChaCha20Poly1305.id:
		return ChaCha20Poly1305, true
	case ExportOnly.id:
		return ExportOnly, true
	}
	return nil, false
}

// ID returns the two-byte AEAD identifier.
func (a *Algorithm) ID() uint16 { return a.id }

// Name returns the algorithm name, e.g. "AES-128-GCM".
func (a *Algorithm) Name() string { return a.name }

// KeySize is Nk, zero for export-only.
func (a *Algorithm) KeySize() int { return a.keySize }

// NonceSize is Nn, zero for export-only.
func (a *Algorithm) NonceSize() int { return a.nonceSize }

// TagSize is Nt, zero for export-only.
func (a *Algorithm) TagSize() int { return a.tagSize }

// IsExportOnly reports whether the algorithm is the export-only placeholder.
func (a *Algorithm) IsExportOnly() bool { return a.newCipher == nil }

// New returns a cipher keyed with key.
func (a *Algorithm) New(key []byte) (cipher.AEAD, error) {
	if a.IsExportOnly() {
		return nil, ErrExportOnly
	}
	if len(key) != a.keySize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), a.keySize)
	}
	c, err := a.newCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", a.name, err)
	}
	return c, nil
}

// Seal encrypts and authenticates plaintext.
func Seal(c cipher.AEAD, nonce, aad, plaintext []byte) ([]byte, error) {
	if len(nonce) != c.NonceSize() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonceSize, len(nonce), c.NonceSize())
	}
	return c.Seal(nil, nonce, plaintext, aad), nil
}

// Open authenticates and decrypts ciphertext. Any failure maps to ErrOpen
// and no plaintext is returned. An empty plaintext comes back as a non-nil
// empty slice.
func Open(c cipher.AEAD, nonce, aad, ciphertext []byte) ([]byte, error) {
	if len(nonce) != c.NonceSize() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonceSize, len(nonce), c.NonceSize())
	}
	plaintext, err := c.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrOpen
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
