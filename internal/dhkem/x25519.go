package dhkem

import (
	"fmt"

	"golang.org/x/crypto/curve25519"

	"github.com/vaultsandbox/hpke-go/internal/kdf"
)

type x25519Group struct{}

func (x25519Group) publicKeySize() int  { return curve25519.PointSize }
func (x25519Group) privateKeySize() int { return curve25519.ScalarSize }

func (g x25519Group) derivePrivate(h *kdf.HKDF, suiteID, prk []byte) ([]byte, error) {
	return deriveClamped(h, suiteID, prk, g.privateKeySize())
}

func (g x25519Group) publicKey(sk []byte) ([]byte, error) {
	if err := g.checkPrivate(sk); err != nil {
		return nil, err
	}
	pk, err := curve25519.X25519(sk, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return pk, nil
}

func (x25519Group) checkPublic(pk []byte) error {
	if len(pk) != curve25519.PointSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPublicKey, len(pk), curve25519.PointSize)
	}
	return nil
}

func (x25519Group) checkPrivate(sk []byte) error {
	if len(sk) != curve25519.ScalarSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPrivateKey, len(sk), curve25519.ScalarSize)
	}
	return nil
}

// dh rejects low-order peer points, which yield an all-zero output.
func (g x25519Group) dh(sk, pk []byte) ([]byte, error) {
	if err := g.checkPrivate(sk); err != nil {
		return nil, err
	}
	if err := g.checkPublic(pk); err != nil {
		return nil, err
	}
	out, err := curve25519.X25519(sk, pk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return out, nil
}
