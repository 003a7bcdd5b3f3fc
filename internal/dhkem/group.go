package dhkem

import (
	"fmt"

	"github.com/vaultsandbox/hpke-go/internal/kdf"
)

// group is a Diffie-Hellman group with fixed-length canonical encodings.
type group interface {
	// publicKeySize is Npk, also Nenc.
	publicKeySize() int
	// privateKeySize is Nsk.
	privateKeySize() int

	// derivePrivate maps dkp_prk to a private key (RFC 9180, Section 7.1.3).
	derivePrivate(h *kdf.HKDF, suiteID, prk []byte) ([]byte, error)

	publicKey(sk []byte) ([]byte, error)
	checkPublic(pk []byte) error
	checkPrivate(sk []byte) error
	dh(sk, pk []byte) ([]byte, error)
}

// deriveClamped is DeriveKeyPair for X25519 and X448, where any Nsk-byte
// string is a valid private key.
func deriveClamped(h *kdf.HKDF, suiteID, prk []byte, nsk int) ([]byte, error) {
	return h.LabeledExpand(prk, suiteID, "sk", nil, nsk)
}

// deriveRejection is DeriveKeyPair for prime-order groups. Candidates are
// masked with bitmask and accepted once check reports a scalar in [1, n).
func deriveRejection(h *kdf.HKDF, suiteID, prk []byte, nsk int, bitmask byte, check func([]byte) error) ([]byte, error) {
	for counter := 0; counter <= 255; counter++ {
		candidate, err := h.LabeledExpand(prk, suiteID, "candidate", []byte{byte(counter)}, nsk)
		if err != nil {
			return nil, fmt.Errorf("failed to expand candidate: %w", err)
		}
		candidate[0] &= bitmask
		if check(candidate) == nil {
			return candidate, nil
		}
	}
	return nil, ErrDeriveKeyPair
}
