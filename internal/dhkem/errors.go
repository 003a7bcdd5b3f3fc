package dhkem

import "errors"

var (
	// ErrInvalidPublicKey is returned when a public key or encapsulated key
	// has the wrong length, is not on the curve, or is a low-order point.
	ErrInvalidPublicKey = errors.New("dhkem: invalid public key")

	// ErrInvalidPrivateKey is returned when a private key has the wrong length
	// or its scalar is out of range.
	ErrInvalidPrivateKey = errors.New("dhkem: invalid private key")

	// ErrDeriveKeyPair is returned when rejection sampling exhausts its
	// 256 candidates without finding a valid scalar.
	ErrDeriveKeyPair = errors.New("dhkem: key pair derivation failed")

	// ErrShortIKM is returned when DeriveKeyPair receives fewer than Nsk bytes
	// of input keying material.
	ErrShortIKM = errors.New("dhkem: input keying material too short")
)
