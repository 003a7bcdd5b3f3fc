// Package dhkem implements DHKEM (RFC 9180, Section 4.1) over X25519, X448,
// P-256, P-384, P-521 and secp256k1.
//
// Keys cross this package as canonical byte strings. Callers own every
// returned private key and shared secret and are expected to wipe them.
package dhkem

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vaultsandbox/hpke-go/internal/kdf"
	"github.com/vaultsandbox/hpke-go/internal/zeroize"
)

// Scheme is one DHKEM instantiation: a group paired with the KDF used inside
// the KEM.
type Scheme struct {
	id      uint16
	name    string
	group   group
	kdf     *kdf.HKDF
	suiteID []byte
}

func newScheme(id uint16, name string, g group, h *kdf.HKDF) *Scheme {
	suiteID := make([]byte, 5)
	copy(suiteID, "KEM")
	binary.BigEndian.PutUint16(suiteID[3:], id)
	return &Scheme{id: id, name: name, group: g, kdf: h, suiteID: suiteID}
}

// Registered DHKEM instantiations.
var (
	P256HKDFSHA256      = newScheme(0x0010, "DHKEM(P-256, HKDF-SHA256)", p256, kdf.SHA256)
	P384HKDFSHA384      = newScheme(0x0011, "DHKEM(P-384, HKDF-SHA384)", p384, kdf.SHA384)
	P521HKDFSHA512      = newScheme(0x0012, "DHKEM(P-521, HKDF-SHA512)", p521, kdf.SHA512)
	Secp256k1HKDFSHA256 = newScheme(0x0016, "DHKEM(secp256k1, HKDF-SHA256)", k256Group{}, kdf.SHA256)
	X25519HKDFSHA256    = newScheme(0x0020, "DHKEM(X25519, HKDF-SHA256)", x25519Group{}, kdf.SHA256)
	X448HKDFSHA512      = newScheme(0x0021, "DHKEM(X448, HKDF-SHA512)", x448Group{}, kdf.SHA512)
)

var schemes = []*Scheme{
	P256HKDFSHA256,
	P384HKDFSHA384,
	P521HKDFSHA512,
	Secp256k1HKDFSHA256,
	X25519HKDFSHA256,
	X448HKDFSHA512,
}

// ByID returns the scheme registered under id.
func ByID(id uint16) (*Scheme, bool) {
	for _, s := range schemes {
		if s.id == id {
			return s, true
		}
	}
	return nil, false
}

// ID returns the two-byte KEM identifier.
func (s *Scheme) ID() uint16 { return s.id }

// Name returns the RFC 9180 name, e.g. "DHKEM(X25519, HKDF-SHA256)".
func (s *Scheme) Name() string { return s.name }

// KDF returns the KDF used inside the KEM.
func (s *Scheme) KDF() *kdf.HKDF { return s.kdf }

// SecretSize is Nsecret, the length of the shared secret.
func (s *Scheme) SecretSize() int { return s.kdf.Size() }

// EncSize is Nenc, the length of the encapsulated key.
func (s *Scheme) EncSize() int { return s.group.publicKeySize() }

// PublicKeySize is Npk.
func (s *Scheme) PublicKeySize() int { return s.group.publicKeySize() }

// PrivateKeySize is Nsk.
func (s *Scheme) PrivateKeySize() int { return s.group.privateKeySize() }

// ValidatePublicKey checks length and group membership.
func (s *Scheme) ValidatePublicKey(pk []byte) error { return s.group.checkPublic(pk) }

// ValidatePrivateKey checks length and scalar range.
func (s *Scheme) ValidatePrivateKey(sk []byte) error { return s.group.checkPrivate(sk) }

// PublicKey computes the public key of sk.
func (s *Scheme) PublicKey(sk []byte) ([]byte, error) { return s.group.publicKey(sk) }

// DeriveKeyPair deterministically maps ikm to a key pair. ikm must carry at
// least Nsk bytes.
func (s *Scheme) DeriveKeyPair(ikm []byte) (sk, pk []byte, err error) {
	if len(ikm) < s.group.privateKeySize() {
		return nil, nil, fmt.Errorf("%w: got %d bytes, want at least %d", ErrShortIKM, len(ikm), s.group.privateKeySize())
	}

	prk := s.kdf.LabeledExtract(nil, s.suiteID, "dkp_prk", ikm)
	defer zeroize.Bytes(prk)

	sk, err = s.group.derivePrivate(s.kdf, s.suiteID, prk)
	if err != nil {
		return nil, nil, err
	}
	pk, err = s.group.publicKey(sk)
	if err != nil {
		zeroize.Bytes(sk)
		return nil, nil, err
	}
	return sk, pk, nil
}

// GenerateKeyPair draws Nsk bytes from rand and derives a key pair from them.
// A nil rand uses crypto/rand.
func (s *Scheme) GenerateKeyPair(rnd io.Reader) (sk, pk []byte, err error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	ikm := make([]byte, s.group.privateKeySize())
	defer zeroize.Bytes(ikm)

	if _, err := io.ReadFull(rnd, ikm); err != nil {
		return nil, nil, fmt.Errorf("failed to read randomness: %w", err)
	}
	return s.DeriveKeyPair(ikm)
}

// Encap generates an ephemeral key pair and encapsulates to pkR. When skS is
// non-nil the encapsulation is authenticated (AuthEncap).
func (s *Scheme) Encap(rnd io.Reader, pkR, skS []byte) (sharedSecret, enc []byte, err error) {
	if err := s.group.checkPublic(pkR); err != nil {
		return nil, nil, err
	}
	skE, _, err := s.GenerateKeyPair(rnd)
	if err != nil {
		return nil, nil, err
	}
	defer zeroize.Bytes(skE)

	return s.encap(pkR, skS, skE)
}

// EncapWithEphemeral is Encap with a caller-chosen ephemeral private key. It
// exists to reproduce published test vectors and must never be reachable from
// the public API.
func (s *Scheme) EncapWithEphemeral(pkR, skS, skE []byte) (sharedSecret, enc []byte, err error) {
	if err := s.group.checkPublic(pkR); err != nil {
		return nil, nil, err
	}
	return s.encap(pkR, skS, skE)
}

func (s *Scheme) encap(pkR, skS, skE []byte) ([]byte, []byte, error) {
	enc, err := s.group.publicKey(skE)
	if err != nil {
		return nil, nil, err
	}

	dh, err := s.group.dh(skE, pkR)
	if err != nil {
		return nil, nil, err
	}
	defer func() { zeroize.Bytes(dh) }()

	kemContext := make([]byte, 0, 3*s.group.publicKeySize())
	kemContext = append(kemContext, enc...)
	kemContext = append(kemContext, pkR...)

	if skS != nil {
		pkS, err := s.group.publicKey(skS)
		if err != nil {
			return nil, nil, err
		}
		dhAuth, err := s.group.dh(skS, pkR)
		if err != nil {
			return nil, nil, err
		}
		dh = concatWiping(dh, dhAuth)
		kemContext = append(kemContext, pkS...)
	}

	ss, err := s.extractAndExpand(dh, kemContext)
	if err != nil {
		return nil, nil, err
	}
	return ss, enc, nil
}

// Decap recovers the shared secret from enc. When pkS is non-nil the sender
// is authenticated (AuthDecap).
func (s *Scheme) Decap(enc, skR, pkS []byte) ([]byte, error) {
	if err := s.group.checkPublic(enc); err != nil {
		return nil, err
	}
	pkR, err := s.group.publicKey(skR)
	if err != nil {
		return nil, err
	}

	dh, err := s.group.dh(skR, enc)
	if err != nil {
		return nil, err
	}
	defer func() { zeroize.Bytes(dh) }()

	kemContext := make([]byte, 0, 3*s.group.publicKeySize())
	kemContext = append(kemContext, enc...)
	kemContext = append(kemContext, pkR...)

	if pkS != nil {
		dhAuth, err := s.group.dh(skR, pkS)
		if err != nil {
			return nil, err
		}
		dh = concatWiping(dh, dhAuth)
		kemContext = append(kemContext, pkS...)
	}

	return s.extractAndExpand(dh, kemContext)
}

func (s *Scheme) extractAndExpand(dh, kemContext []byte) ([]byte, error) {
	eaePRK := s.kdf.LabeledExtract(nil, s.suiteID, "eae_prk", dh)
	defer zeroize.Bytes(eaePRK)

	ss, err := s.kdf.LabeledExpand(eaePRK, s.suiteID, "shared_secret", kemContext, s.kdf.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to expand shared secret: %w", err)
	}
	return ss, nil
}

// concatWiping returns a || b in a fresh buffer and wipes both inputs.
func concatWiping(a, b []byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	zeroize.All(a, b)
	return out
}
