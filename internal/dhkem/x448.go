package dhkem

import (
	"fmt"

	"github.com/cloudflare/circl/dh/x448"

	"github.com/vaultsandbox/hpke-go/internal/kdf"
	"github.com/vaultsandbox/hpke-go/internal/zeroize"
)

type x448Group struct{}

func (x448Group) publicKeySize() int  { return x448.Size }
func (x448Group) privateKeySize() int { return x448.Size }

func (g x448Group) derivePrivate(h *kdf.HKDF, suiteID, prk []byte) ([]byte, error) {
	return deriveClamped(h, suiteID, prk, g.privateKeySize())
}

func (g x448Group) publicKey(sk []byte) ([]byte, error) {
	if err := g.checkPrivate(sk); err != nil {
		return nil, err
	}
	var secret, public x448.Key
	copy(secret[:], sk)
	defer zeroize.Bytes(secret[:])

	x448.KeyGen(&public, &secret)
	return public[:], nil
}

func (x448Group) checkPublic(pk []byte) error {
	if len(pk) != x448.Size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPublicKey, len(pk), x448.Size)
	}
	return nil
}

func (x448Group) checkPrivate(sk []byte) error {
	if len(sk) != x448.Size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPrivateKey, len(sk), x448.Size)
	}
	return nil
}

func (g x448Group) dh(sk, pk []byte) ([]byte, error) {
	if err := g.checkPrivate(sk); err != nil {
		return nil, err
	}
	if err := g.checkPublic(pk); err != nil {
		return nil, err
	}

	var secret, public, shared x448.Key
	copy(secret[:], sk)
	copy(public[:], pk)
	defer zeroize.Bytes(secret[:])

	if !x448.Shared(&shared, &secret, &public) {
		return nil, fmt.Errorf("%w: low order point", ErrInvalidPublicKey)
	}
	return shared[:], nil
}
