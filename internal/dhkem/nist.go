package dhkem

import (
	"crypto/ecdh"
	"fmt"

	"github.com/vaultsandbox/hpke-go/internal/kdf"
)

// nistGroup covers P-256, P-384 and P-521. Public keys use the uncompressed
// SEC 1 encoding; private keys are fixed-length big-endian scalars.
type nistGroup struct {
	curve   ecdh.Curve
	npk     int
	nsk     int
	bitmask byte
}

var (
	p256 = &nistGroup{curve: ecdh.P256(), npk: 65, nsk: 32, bitmask: 0xff}
	p384 = &nistGroup{curve: ecdh.P384(), npk: 97, nsk: 48, bitmask: 0xff}
	p521 = &nistGroup{curve: ecdh.P521(), npk: 133, nsk: 66, bitmask: 0x01}
)

func (g *nistGroup) publicKeySize() int  { return g.npk }
func (g *nistGroup) privateKeySize() int { return g.nsk }

func (g *nistGroup) derivePrivate(h *kdf.HKDF, suiteID, prk []byte) ([]byte, error) {
	return deriveRejection(h, suiteID, prk, g.nsk, g.bitmask, g.checkPrivate)
}

func (g *nistGroup) publicKey(sk []byte) ([]byte, error) {
	priv, err := g.curve.NewPrivateKey(sk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return priv.PublicKey().Bytes(), nil
}

// checkPublic accepts only uncompressed points that lie on the curve.
// crypto/ecdh rejects the point at infinity.
func (g *nistGroup) checkPublic(pk []byte) error {
	if len(pk) != g.npk {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPublicKey, len(pk), g.npk)
	}
	if _, err := g.curve.NewPublicKey(pk); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return nil
}

func (g *nistGroup) checkPrivate(sk []byte) error {
	if len(sk) != g.nsk {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPrivateKey, len(sk), g.nsk)
	}
	if _, err := g.curve.NewPrivateKey(sk); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return nil
}

// dh returns the x-coordinate of the shared point.
func (g *nistGroup) dh(sk, pk []byte) ([]byte, error) {
	priv, err := g.curve.NewPrivateKey(sk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	if len(pk) != g.npk {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPublicKey, len(pk), g.npk)
	}
	pub, err := g.curve.NewPublicKey(pk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	out, err := priv.ECDH(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return out, nil
}
