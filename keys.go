package hpke

import (
	"crypto/subtle"
	"errors"
	"io"

	"github.com/vaultsandbox/hpke-go/internal/dhkem"
	"github.com/vaultsandbox/hpke-go/internal/zeroize"
)

var errKeyZeroed = errors.New("private key has been zeroed")

// KEM is a Diffie-Hellman based key encapsulation mechanism.
//
// Sizes: Nsecret = SecretSize(), Nenc = EncapsulatedKeySize(),
// Npk = PublicKeySize(), Nsk = PrivateKeySize().
type KEM interface {
	ID() KEMID
	SecretSize() int
	EncapsulatedKeySize() int
	PublicKeySize() int
	PrivateKeySize() int
	String() string

	// GenerateKeyPair draws a fresh key pair from rand (crypto/rand if nil).
	GenerateKeyPair(rand io.Reader) (*PrivateKey, error)
	// DeriveKeyPair maps ikm, which must be at least PrivateKeySize() bytes,
	// to a key pair deterministically.
	DeriveKeyPair(ikm []byte) (*PrivateKey, error)

	UnmarshalPublicKey(b []byte) (*PublicKey, error)
	UnmarshalPrivateKey(b []byte) (*PrivateKey, error)

	// Encap returns a fresh shared secret and its encapsulation to pkR.
	// A non-nil skS authenticates the sender.
	Encap(rand io.Reader, pkR *PublicKey, skS *PrivateKey) (sharedSecret, enc []byte, err error)
	// Decap recovers the shared secret from enc. A non-nil pkS checks the
	// sender's authentication.
	Decap(enc []byte, skR *PrivateKey, pkS *PublicKey) ([]byte, error)

	scheme() *dhkem.Scheme
}

// PublicKey is a KEM public key in its canonical encoding.
type PublicKey struct {
	kem KEMID
	b   []byte
}

// KEM returns the KEM the key belongs to.
func (k *PublicKey) KEM() KEMID { return k.kem }

// Bytes returns a copy of the canonical encoding.
func (k *PublicKey) Bytes() []byte {
	return append([]byte(nil), k.b...)
}

// Equal reports whether k and other are the same key of the same KEM.
func (k *PublicKey) Equal(other *PublicKey) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.kem == other.kem && subtle.ConstantTimeCompare(k.b, other.b) == 1
}

// PrivateKey is a KEM private key together with its public key.
type PrivateKey struct {
	kem    KEMID
	b      []byte
	pub    *PublicKey
	zeroed bool
}

// KEM returns the KEM the key belongs to.
func (k *PrivateKey) KEM() KEMID { return k.kem }

// Bytes returns a copy of the canonical encoding. The caller should wipe it.
func (k *PrivateKey) Bytes() []byte {
	return append([]byte(nil), k.b...)
}

// PublicKey returns the matching public key.
func (k *PrivateKey) PublicKey() *PublicKey { return k.pub }

// Zero wipes the key. A zeroed key is rejected by every operation.
func (k *PrivateKey) Zero() {
	zeroize.Bytes(k.b)
	k.zeroed = true
}

// bytes returns the raw key for internal use, or an error once zeroed.
func (k *PrivateKey) bytes() ([]byte, error) {
	if k.zeroed {
		return nil, &DecodeError{Kind: "private key", KEM: k.kem, Err: errKeyZeroed}
	}
	return k.b, nil
}

type dhKEM struct {
	s *dhkem.Scheme
}

func (d *dhKEM) scheme() *dhkem.Scheme { return d.s }

func (d *dhKEM) ID() KEMID                { return KEMID(d.s.ID()) }
func (d *dhKEM) SecretSize() int          { return d.s.SecretSize() }
func (d *dhKEM) EncapsulatedKeySize() int { return d.s.EncSize() }
func (d *dhKEM) PublicKeySize() int       { return d.s.PublicKeySize() }
func (d *dhKEM) PrivateKeySize() int      { return d.s.PrivateKeySize() }
func (d *dhKEM) String() string           { return d.s.Name() }

func (d *dhKEM) GenerateKeyPair(rand io.Reader) (*PrivateKey, error) {
	sk, pk, err := d.s.GenerateKeyPair(rand)
	if err != nil {
		return nil, err
	}
	return d.newPrivateKey(sk, pk), nil
}

func (d *dhKEM) DeriveKeyPair(ikm []byte) (*PrivateKey, error) {
	sk, pk, err := d.s.DeriveKeyPair(ikm)
	if err != nil {
		if errors.Is(err, dhkem.ErrShortIKM) {
			return nil, &DecodeError{Kind: "ikm", KEM: d.ID(), Err: err}
		}
		return nil, err
	}
	return d.newPrivateKey(sk, pk), nil
}

func (d *dhKEM) UnmarshalPublicKey(b []byte) (*PublicKey, error) {
	if err := d.s.ValidatePublicKey(b); err != nil {
		return nil, &DecodeError{Kind: "public key", KEM: d.ID(), Err: err}
	}
	return &PublicKey{kem: d.ID(), b: append([]byte(nil), b...)}, nil
}

func (d *dhKEM) UnmarshalPrivateKey(b []byte) (*PrivateKey, error) {
	if err := d.s.ValidatePrivateKey(b); err != nil {
		return nil, &DecodeError{Kind: "private key", KEM: d.ID(), Err: err}
	}
	pk, err := d.s.PublicKey(b)
	if err != nil {
		return nil, &DecodeError{Kind: "private key", KEM: d.ID(), Err: err}
	}
	return d.newPrivateKey(append([]byte(nil), b...), pk), nil
}

func (d *dhKEM) Encap(rand io.Reader, pkR *PublicKey, skS *PrivateKey) ([]byte, []byte, error) {
	if err := d.checkPublic(pkR); err != nil {
		return nil, nil, err
	}
	var sks []byte
	if skS != nil {
		if skS.kem != d.ID() {
			return nil, nil, ErrKeyMismatch
		}
		var err error
		if sks, err = skS.bytes(); err != nil {
			return nil, nil, err
		}
	}

	ss, enc, err := d.s.Encap(rand, pkR.b, sks)
	if err != nil {
		return nil, nil, &KEMError{Op: "encap", KEM: d.ID(), Err: err}
	}
	return ss, enc, nil
}

func (d *dhKEM) Decap(enc []byte, skR *PrivateKey, pkS *PublicKey) ([]byte, error) {
	if skR == nil || skR.kem != d.ID() {
		return nil, ErrKeyMismatch
	}
	if pkS != nil && pkS.kem != d.ID() {
		return nil, ErrKeyMismatch
	}
	if err := d.s.ValidatePublicKey(enc); err != nil {
		return nil, &DecodeError{Kind: "encapsulated key", KEM: d.ID(), Err: err}
	}
	skr, err := skR.bytes()
	if err != nil {
		return nil, err
	}
	var pks []byte
	if pkS != nil {
		pks = pkS.b
	}

	ss, err := d.s.Decap(enc, skr, pks)
	if err != nil {
		return nil, &KEMError{Op: "decap", KEM: d.ID(), Err: err}
	}
	return ss, nil
}

func (d *dhKEM) checkPublic(pk *PublicKey) error {
	if pk == nil || pk.kem != d.ID() {
		return ErrKeyMismatch
	}
	return nil
}

func (d *dhKEM) newPrivateKey(sk, pk []byte) *PrivateKey {
	return &PrivateKey{
		kem: d.ID(),
		b:   sk,
		pub: &PublicKey{kem: d.ID(), b: pk},
	}
}
