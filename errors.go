package hpke

import (
	"errors"
	"fmt"

	"github.com/vaultsandbox/hpke-go/internal/aead"
	"github.com/vaultsandbox/hpke-go/internal/kdf"
	"github.com/vaultsandbox/hpke-go/internal/session"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrDecode is returned when a key or encapsulated key has the wrong
	// length or fails group validation.
	ErrDecode = errors.New("malformed key encoding")

	// ErrInvalidMode is returned when an operation mode is built without the
	// material it requires.
	ErrInvalidMode = errors.New("invalid operation mode")

	// ErrEncap is returned when encapsulation cannot produce a shared secret.
	ErrEncap = errors.New("encapsulation failed")

	// ErrDecap is returned when decapsulation cannot produce a shared secret.
	ErrDecap = errors.New("decapsulation failed")

	// ErrAuthentication is returned when Open rejects a ciphertext. It carries
	// no detail about the cause.
	ErrAuthentication = errors.New("message authentication failed")

	// ErrSequenceOverflow is returned once a context has used up its sequence
	// numbers. The context is unusable from then on.
	ErrSequenceOverflow = errors.New("sequence number overflow")

	// ErrExportLength is returned when an export asks for more than 255*Nh bytes.
	ErrExportLength = errors.New("export length too large")

	// ErrExportOnly is returned when an export-only context is asked to seal
	// or open.
	ErrExportOnly = errors.New("suite is export-only")

	// ErrUnsupported is returned for an unknown KEM, KDF or AEAD identifier.
	ErrUnsupported = errors.New("unsupported algorithm")

	// ErrKeyMismatch is returned when a key belongs to a different KEM than
	// the suite in use.
	ErrKeyMismatch = errors.New("key does not belong to suite KEM")

	// ErrContextClosed is returned when a closed context is used.
	ErrContextClosed = errors.New("context has been closed")
)

// Error is implemented by the typed errors of this package.
type Error interface {
	error
	HPKEError() // marker method
}

// DecodeError reports a key or encapsulated key that could not be decoded.
type DecodeError struct {
	Kind string // "public key", "private key", "encapsulated key", "ikm"
	KEM  KEMID
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s for %s: %v", e.Kind, e.KEM, e.Err)
	}
	return fmt.Sprintf("invalid %s for %s", e.Kind, e.KEM)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// HPKEError implements the Error interface.
func (e *DecodeError) HPKEError() {}

// ModeError reports an operation mode missing its required material.
type ModeError struct {
	Mode   ModeID
	Reason string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("invalid %s mode: %s", e.Mode, e.Reason)
}

// Is implements errors.Is for sentinel error matching.
func (e *ModeError) Is(target error) bool {
	return target == ErrInvalidMode
}

// HPKEError implements the Error interface.
func (e *ModeError) HPKEError() {}

// KEMError reports a failed encapsulation or decapsulation.
type KEMError struct {
	Op  string // "encap" or "decap"
	KEM KEMID
	Err error
}

func (e *KEMError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.KEM, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *KEMError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *KEMError) Is(target error) bool {
	switch e.Op {
	case "encap":
		return target == ErrEncap
	case "decap":
		return target == ErrDecap
	}
	return false
}

// HPKEError implements the Error interface.
func (e *KEMError) HPKEError() {}

// wrapError converts internal context errors to public errors.
// This ensures that errors.Is() checks work with public sentinel errors.
func wrapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, aead.ErrOpen):
		return ErrAuthentication
	case errors.Is(err, session.ErrSequenceOverflow):
		return ErrSequenceOverflow
	case errors.Is(err, session.ErrClosed):
		return ErrContextClosed
	case errors.Is(err, aead.ErrExportOnly):
		return ErrExportOnly
	case errors.Is(err, kdf.ErrOutputLength):
		return fmt.Errorf("%w: %v", ErrExportLength, err)
	}
	return err
}
