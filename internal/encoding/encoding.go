// Package encoding converts keys, encapsulated keys and ciphertexts to and
// from the text forms used by the command line tool and the test vectors.
package encoding

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ToBase64URL encodes bytes to URL-safe base64 without padding.
func ToBase64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeBase64 decodes base64url or standard base64, with or without
// padding.
func DecodeBase64(s string) ([]byte, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}

	data, err = base64.URLEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}

	data, err = base64.RawStdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}

	return base64.StdEncoding.DecodeString(s)
}

// Hex is a byte string that marshals to and from lowercase hex in JSON.
// The empty string and null both decode to an empty value.
type Hex []byte

// String returns the lowercase hex form.
func (h Hex) String() string { return hex.EncodeToString(h) }

// MarshalJSON implements json.Marshaler.
func (h Hex) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *Hex) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*h = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("hex field: %w", err)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("hex field: %w", err)
	}
	*h = b
	return nil
}

// Base64URL is a byte string that marshals to unpadded base64url in JSON
// and accepts any base64 alphabet when unmarshaling.
type Base64URL []byte

// String returns the unpadded base64url form.
func (b Base64URL) String() string { return ToBase64URL(b) }

// MarshalJSON implements json.Marshaler.
func (b Base64URL) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToBase64URL(b))
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Base64URL) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("base64 field: %w", err)
	}
	v, err := DecodeBase64(s)
	if err != nil {
		return fmt.Errorf("base64 field: %w", err)
	}
	*b = v
	return nil
}
