package hpke

import (
	"crypto/cipher"
	"fmt"

	"github.com/vaultsandbox/hpke-go/internal/aead"
	"github.com/vaultsandbox/hpke-go/internal/dhkem"
	"github.com/vaultsandbox/hpke-go/internal/kdf"
	"github.com/vaultsandbox/hpke-go/internal/schedule"
)

// KEMID is a KEM identifier from the HPKE registry.
type KEMID uint16

// KDFID is a KDF identifier from the HPKE registry.
type KDFID uint16

// AEADID is an AEAD identifier from the HPKE registry.
type AEADID uint16

const (
	KEMP256HKDFSHA256      KEMID = 0x0010
	KEMP384HKDFSHA384      KEMID = 0x0011
	KEMP521HKDFSHA512      KEMID = 0x0012
	KEMSecp256k1HKDFSHA256 KEMID = 0x0016
	KEMX25519HKDFSHA256    KEMID = 0x0020
	KEMX448HKDFSHA512      KEMID = 0x0021
)

const (
	KDFHKDFSHA256 KDFID = 0x0001
	KDFHKDFSHA384 KDFID = 0x0002
	KDFHKDFSHA512 KDFID = 0x0003
)

const (
	AEADAES128GCM        AEADID = 0x0001
	AEADAES256GCM        AEADID = 0x0002
	AEADChaCha20Poly1305 AEADID = 0x0003
	// AEADExportOnly disables Seal and Open; only Export is available.
	AEADExportOnly AEADID = 0xffff
)

func (id KEMID) String() string {
	if s, ok := dhkem.ByID(uint16(id)); ok {
		return s.Name()
	}
	return fmt.Sprintf("KEM(0x%04x)", uint16(id))
}

func (id KDFID) String() string {
	if h, ok := kdf.ByID(uint16(id)); ok {
		return h.Name()
	}
	return fmt.Sprintf("KDF(0x%04x)", uint16(id))
}

func (id AEADID) String() string {
	if a, ok := aead.ByID(uint16(id)); ok {
		return a.Name()
	}
	return fmt.Sprintf("AEAD(0x%04x)", uint16(id))
}

// KEM returns the implementation registered under id.
func (id KEMID) KEM() (KEM, error) {
	s, ok := dhkem.ByID(uint16(id))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, id)
	}
	return &dhKEM{s: s}, nil
}

// KDF returns the implementation registered under id.
func (id KDFID) KDF() (KDF, error) {
	h, ok := kdf.ByID(uint16(id))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, id)
	}
	return &hkdfKDF{h: h}, nil
}

// AEAD returns the implementation registered under id.
func (id AEADID) AEAD() (AEAD, error) {
	a, ok := aead.ByID(uint16(id))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, id)
	}
	return &aeadAlg{alg: a}, nil
}

// KDF is a labeled HKDF instance. Nh is Size().
type KDF interface {
	ID() KDFID
	Size() int
	String() string

	// LabeledExtract returns Extract(salt, "HPKE-v1" || suiteID || label || ikm).
	LabeledExtract(salt, suiteID []byte, label string, ikm []byte) []byte
	// LabeledExpand expands prk to length bytes bound to label and info.
	// length may not exceed 255*Size().
	LabeledExpand(prk, suiteID []byte, label string, info []byte, length int) ([]byte, error)

	hkdf() *kdf.HKDF
}

// AEAD is an authenticated cipher with Nk = KeySize(), Nn = NonceSize() and
// Nt = TagSize().
type AEAD interface {
	ID() AEADID
	KeySize() int
	NonceSize() int
	TagSize() int
	String() string

	// Seal encrypts plaintext under key and nonce.
	Seal(key, nonce, aad, plaintext []byte) ([]byte, error)
	// Open returns ErrAuthentication for every kind of failure.
	Open(key, nonce, aad, ciphertext []byte) ([]byte, error)

	algorithm() *aead.Algorithm
}

type hkdfKDF struct{ h *kdf.HKDF }

func (k *hkdfKDF) ID() KDFID       { return KDFID(k.h.ID()) }
func (k *hkdfKDF) Size() int       { return k.h.Size() }
func (k *hkdfKDF) String() string  { return k.h.Name() }
func (k *hkdfKDF) hkdf() *kdf.HKDF { return k.h }

func (k *hkdfKDF) LabeledExtract(salt, suiteID []byte, label string, ikm []byte) []byte {
	return k.h.LabeledExtract(salt, suiteID, label, ikm)
}

func (k *hkdfKDF) LabeledExpand(prk, suiteID []byte, label string, info []byte, length int) ([]byte, error) {
	out, err := k.h.LabeledExpand(prk, suiteID, label, info, length)
	if err != nil {
		return nil, wrapError(err)
	}
	return out, nil
}

type aeadAlg struct{ alg *aead.Algorithm }

func (a *aeadAlg) ID() AEADID                 { return AEADID(a.alg.ID()) }
func (a *aeadAlg) KeySize() int               { return a.alg.KeySize() }
func (a *aeadAlg) NonceSize() int             { return a.alg.NonceSize() }
func (a *aeadAlg) TagSize() int               { return a.alg.TagSize() }
func (a *aeadAlg) String() string             { return a.alg.Name() }
func (a *aeadAlg) algorithm() *aead.Algorithm { return a.alg }

func (a *aeadAlg) Seal(key, nonce, aad, plaintext []byte) ([]byte, error) {
	c, err := a.cipher(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(c, nonce, aad, plaintext)
}

func (a *aeadAlg) Open(key, nonce, aad, ciphertext []byte) ([]byte, error) {
	c, err := a.cipher(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(c, nonce, aad, ciphertext)
	if err != nil {
		return nil, wrapError(err)
	}
	return pt, nil
}

func (a *aeadAlg) cipher(key []byte) (cipher.AEAD, error) {
	c, err := a.alg.New(key)
	if err != nil {
		return nil, wrapError(err)
	}
	return c, nil
}

// Suite is a (KEM, KDF, AEAD) combination.
type Suite struct {
	KEM  KEM
	KDF  KDF
	AEAD AEAD
}

// NewSuite looks up the three algorithms by registry identifier.
func NewSuite(kemID KEMID, kdfID KDFID, aeadID AEADID) (Suite, error) {
	k, err := kemID.KEM()
	if err != nil {
		return Suite{}, err
	}
	h, err := kdfID.KDF()
	if err != nil {
		return Suite{}, err
	}
	a, err := aeadID.AEAD()
	if err != nil {
		return Suite{}, err
	}
	return Suite{KEM: k, KDF: h, AEAD: a}, nil
}

// MustSuite is like NewSuite but panics on an unknown identifier.
func MustSuite(kemID KEMID, kdfID KDFID, aeadID AEADID) Suite {
	s, err := NewSuite(kemID, kdfID, aeadID)
	if err != nil {
		panic(err)
	}
	return s
}

// ID returns the 10-byte suite_id "HPKE" || kem || kdf || aead.
func (s Suite) ID() []byte {
	return schedule.SuiteID(uint16(s.KEM.ID()), uint16(s.KDF.ID()), uint16(s.AEAD.ID()))
}

func (s Suite) String() string {
	if !s.valid() {
		return "Suite(incomplete)"
	}
	return fmt.Sprintf("%s, %s, %s", s.KEM, s.KDF, s.AEAD)
}

func (s Suite) valid() bool {
	return s.KEM != nil && s.KDF != nil && s.AEAD != nil
}
