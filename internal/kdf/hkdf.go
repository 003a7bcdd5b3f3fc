// Package kdf implements the labeled HKDF construction of RFC 9180, Section 4.
package kdf

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/vaultsandbox/hpke-go/internal/zeroize"
)

// VersionLabel is prepended to every labeled input.
const VersionLabel = "HPKE-v1"

// ErrOutputLength is returned when an expansion asks for more than
// 255 hash outputs, or for a negative length.
var ErrOutputLength = errors.New("kdf: invalid output length")

// HKDF is HKDF (RFC 5869) instantiated with one hash function.
type HKDF struct {
	id      uint16
	name    string
	newHash func() hash.Hash
	size    int
}

var (
	// SHA256 is HKDF-SHA256.
	SHA256 = &HKDF{id: 0x0001, name: "HKDF-SHA256", newHash: sha256.New, size: sha256.Size}
	// SHA384 is HKDF-SHA384.
	SHA384 = &HKDF{id: 0x0002, name: "HKDF-SHA384", newHash: sha512.New384, size: sha512.Size384}
	// SHA512 is HKDF-SHA512.
	SHA512 = &HKDF{id: 0x0003, name: "HKDF-SHA512", newHash: sha512.New, size: sha512.Size}
)

// ByID returns the HKDF instance registered under id.
func ByID(id uint16) (*HKDF, bool) {
	switch id {
	case SHA256.id:
		return SHA256, true
	case SHA384.id:
		return SHA384, true
	case SHA512.id:
		return SHA512, true
	}
	return nil, false
}

// ID returns the registry identifier.
func (h *HKDF) ID() uint16 { return h.id }

// Name returns the algorithm name.
func (h *HKDF) Name() string { return h.name }

// Size returns Nh, the output size of Extract.
func (h *HKDF) Size() int { return h.size }

// MaxOutput is the largest length Expand can produce.
func (h *HKDF) MaxOutput() int { return 255 * h.size }

// Extract is HKDF-Extract. A nil or empty salt is equivalent to Nh zero bytes.
func (h *HKDF) Extract(salt, ikm []byte) []byte {
	return hkdf.Extract(h.newHash, ikm, salt)
}

// Expand is HKDF-Expand.
func (h *HKDF) Expand(prk, info []byte, length int) ([]byte, error) {
	if length < 0 || length > h.MaxOutput() {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrOutputLength, length, h.MaxOutput())
	}

	out := make([]byte, length)
	if length == 0 {
		return out, nil
	}

	reader := hkdf.Expand(h.newHash, prk, info)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("failed to expand: %w", err)
	}

	return out, nil
}

// LabeledExtract computes Extract(salt, "HPKE-v1" || suiteID || label || ikm).
func (h *HKDF) LabeledExtract(salt, suiteID []byte, label string, ikm []byte) []byte {
	labeledIKM := make([]byte, 0, len(VersionLabel)+len(suiteID)+len(label)+len(ikm))
	labeledIKM = append(labeledIKM, VersionLabel...)
	labeledIKM = append(labeledIKM, suiteID...)
	labeledIKM = append(labeledIKM, label...)
	labeledIKM = append(labeledIKM, ikm...)
	defer zeroize.Bytes(labeledIKM)

	return h.Extract(salt, labeledIKM)
}

// LabeledExpand computes
// Expand(prk, I2OSP(length, 2) || "HPKE-v1" || suiteID || label || info, length).
func (h *HKDF) LabeledExpand(prk, suiteID []byte, label string, info []byte, length int) ([]byte, error) {
	if length < 0 || length > h.MaxOutput() {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrOutputLength, length, h.MaxOutput())
	}

	labeledInfo := make([]byte, 2, 2+len(VersionLabel)+len(suiteID)+len(label)+len(info))
	binary.BigEndian.PutUint16(labeledInfo, uint16(length))
	labeledInfo = append(labeledInfo, VersionLabel...)
	labeledInfo = append(labeledInfo, suiteID...)
	labeledInfo = append(labeledInfo, label...)
	labeledInfo = append(labeledInfo, info...)

	return h.Expand(prk, labeledInfo, length)
}
