// Package session implements the sequenced encryption context of RFC 9180,
// Section 5.2: nonce derivation, the message counter and the exporter.
package session

import (
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/vaultsandbox/hpke-go/internal/aead"
	"github.com/vaultsandbox/hpke-go/internal/kdf"
	"github.com/vaultsandbox/hpke-go/internal/schedule"
	"github.com/vaultsandbox/hpke-go/internal/zeroize"
)

var (
	// ErrSequenceOverflow is returned once the counter has reached its limit.
	// The context stays in this state.
	ErrSequenceOverflow = errors.New("session: message limit reached")

	// ErrClosed is returned by every call after Close.
	ErrClosed = errors.New("session: context closed")

	// ErrWrongRole is returned when a sender opens or a receiver seals.
	ErrWrongRole = errors.New("session: operation not allowed for this role")
)

// Role fixes the direction of a context.
type Role uint8

const (
	Sender Role = iota + 1
	Receiver
)

func (r Role) String() string {
	switch r {
	case Sender:
		return "sender"
	case Receiver:
		return "receiver"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

type state uint8

const (
	stateActive state = iota
	stateOverflowed
	stateClosed
)

// Context holds the AEAD key, base nonce, counter and exporter secret for one
// direction. It is not safe for concurrent use.
type Context struct {
	role    Role
	alg     *aead.Algorithm
	kdf     *kdf.HKDF
	suiteID []byte

	cipher         cipher.AEAD
	key            []byte
	baseNonce      []byte
	exporterSecret []byte

	// seq is the big-endian message counter, Nn bytes wide.
	seq   []byte
	state state
}

// New builds a context from key schedule output. The params are copied; the
// caller still owns and wipes p.
func New(role Role, alg *aead.Algorithm, h *kdf.HKDF, suiteID []byte, p *schedule.Params) (*Context, error) {
	c := &Context{
		role:           role,
		alg:            alg,
		kdf:            h,
		suiteID:        append([]byte(nil), suiteID...),
		key:            append([]byte(nil), p.Key...),
		baseNonce:      append([]byte(nil), p.BaseNonce...),
		exporterSecret: append([]byte(nil), p.ExporterSecret...),
		seq:            make([]byte, alg.NonceSize()),
	}

	if !alg.IsExportOnly() {
		ciph, err := alg.New(c.key)
		if err != nil {
			c.wipe()
			return nil, err
		}
		c.cipher = ciph
	}
	return c, nil
}

// Role reports whether the context seals or opens.
func (c *Context) Role() Role { return c.role }

// Overhead is the ciphertext expansion of Seal, zero for export-only suites.
func (c *Context) Overhead() int { return c.alg.TagSize() }

// Seal encrypts plaintext under the current sequence number and advances it.
func (c *Context) Seal(aad, plaintext []byte) ([]byte, error) {
	if err := c.ready(Sender); err != nil {
		return nil, err
	}
	nonce := c.nonce()
	defer zeroize.Bytes(nonce)

	ct, err := aead.Seal(c.cipher, nonce, aad, plaintext)
	if err != nil {
		return nil, err
	}
	c.increment()
	return ct, nil
}

// Open decrypts ciphertext under the current sequence number. The counter
// only advances when authentication succeeds.
func (c *Context) Open(aad, ciphertext []byte) ([]byte, error) {
	if err := c.ready(Receiver); err != nil {
		return nil, err
	}
	nonce := c.nonce()
	defer zeroize.Bytes(nonce)

	pt, err := aead.Open(c.cipher, nonce, aad, ciphertext)
	if err != nil {
		return nil, err
	}
	c.increment()
	return pt, nil
}

// Export derives length bytes bound to exporterContext. It does not touch
// the counter.
func (c *Context) Export(exporterContext []byte, length int) ([]byte, error) {
	switch c.state {
	case stateClosed:
		return nil, ErrClosed
	case stateOverflowed:
		return nil, ErrSequenceOverflow
	}
	return c.kdf.LabeledExpand(c.exporterSecret, c.suiteID, "sec", exporterContext, length)
}

// Close wipes the context. It is idempotent.
func (c *Context) Close() {
	if c.state == stateClosed {
		return
	}
	c.wipe()
	c.state = stateClosed
}

// Closed reports whether Close has been called.
func (c *Context) Closed() bool { return c.state == stateClosed }

// ready checks state, role and the counter limit before a Seal or Open. The
// last representable sequence number is never used; hitting it moves the
// context into the overflowed state for good.
func (c *Context) ready(want Role) error {
	switch c.state {
	case stateClosed:
		return ErrClosed
	case stateOverflowed:
		return ErrSequenceOverflow
	}
	if c.alg.IsExportOnly() {
		return aead.ErrExportOnly
	}
	if c.role != want {
		return fmt.Errorf("%w: %s cannot %s", ErrWrongRole, c.role, opName(want))
	}
	if c.atLimit() {
		c.wipe()
		c.state = stateOverflowed
		return ErrSequenceOverflow
	}
	return nil
}

func opName(r Role) string {
	if r == Sender {
		return "seal"
	}
	return "open"
}

// nonce is base_nonce XOR I2OSP(seq, Nn).
func (c *Context) nonce() []byte {
	n := make([]byte, len(c.baseNonce))
	for i := range n {
		n[i] = c.baseNonce[i] ^ c.seq[i]
	}
	return n
}

// atLimit reports seq == 2^(8*Nn) - 1.
func (c *Context) atLimit() bool {
	for _, b := range c.seq {
		if b != 0xff {
			return false
		}
	}
	return true
}

func (c *Context) increment() {
	for i := len(c.seq) - 1; i >= 0; i-- {
		c.seq[i]++
		if c.seq[i] != 0 {
			return
		}
	}
}

func (c *Context) wipe() {
	zeroize.All(c.key, c.baseNonce, c.exporterSecret)
	c.cipher = nil
}
