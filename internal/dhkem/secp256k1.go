package dhkem

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/vaultsandbox/hpke-go/internal/kdf"
)

const (
	k256PublicKeySize  = 65
	k256PrivateKeySize = btcec.PrivKeyBytesLen
	// k256UncompressedTag is the SEC 1 prefix of an uncompressed point.
	k256UncompressedTag = 0x04
)

// k256Group is secp256k1 with uncompressed SEC 1 public keys.
type k256Group struct{}

func (k256Group) publicKeySize() int  { return k256PublicKeySize }
func (k256Group) privateKeySize() int { return k256PrivateKeySize }

func (g k256Group) derivePrivate(h *kdf.HKDF, suiteID, prk []byte) ([]byte, error) {
	return deriveRejection(h, suiteID, prk, k256PrivateKeySize, 0xff, g.checkPrivate)
}

func (g k256Group) publicKey(sk []byte) ([]byte, error) {
	priv, err := g.parsePrivate(sk)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()
	return priv.PubKey().SerializeUncompressed(), nil
}

func (k256Group) checkPublic(pk []byte) error {
	_, err := parseK256Public(pk)
	return err
}

func (g k256Group) checkPrivate(sk []byte) error {
	priv, err := g.parsePrivate(sk)
	if err != nil {
		return err
	}
	priv.Zero()
	return nil
}

// parsePrivate rejects scalars that are zero or not below the group order
// instead of reducing them.
func (k256Group) parsePrivate(sk []byte) (*btcec.PrivateKey, error) {
	if len(sk) != k256PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPrivateKey, len(sk), k256PrivateKeySize)
	}
	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(sk); overflow {
		scalar.Zero()
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidPrivateKey)
	}
	if scalar.IsZero() {
		return nil, fmt.Errorf("%w: zero scalar", ErrInvalidPrivateKey)
	}
	priv := btcec.PrivKeyFromScalar(&scalar)
	scalar.Zero()
	return priv, nil
}

// parseK256Public accepts only the uncompressed form. ParsePubKey also takes
// hybrid encodings of the same length, so the tag is checked first.
func parseK256Public(pk []byte) (*btcec.PublicKey, error) {
	if len(pk) != k256PublicKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPublicKey, len(pk), k256PublicKeySize)
	}
	if pk[0] != k256UncompressedTag {
		return nil, fmt.Errorf("%w: not an uncompressed point", ErrInvalidPublicKey)
	}
	pub, err := btcec.ParsePubKey(pk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return pub, nil
}

// dh returns the x-coordinate of the shared point.
func (g k256Group) dh(sk, pk []byte) ([]byte, error) {
	priv, err := g.parsePrivate(sk)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	pub, err := parseK256Public(pk)
	if err != nil {
		return nil, err
	}
	return btcec.GenerateSharedSecret(priv, pub), nil
}
