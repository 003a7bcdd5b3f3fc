// Package schedule implements the HPKE key schedule (RFC 9180, Section 5.1).
package schedule

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/vaultsandbox/hpke-go/internal/kdf"
	"github.com/vaultsandbox/hpke-go/internal/zeroize"
)

// Mode is the one-byte mode identifier.
type Mode uint8

const (
	ModeBase    Mode = 0x00
	ModePSK     Mode = 0x01
	ModeAuth    Mode = 0x02
	ModeAuthPSK Mode = 0x03
)

// ErrInconsistentPSK is returned when the presence of psk and psk_id does not
// match the mode.
var ErrInconsistentPSK = errors.New("schedule: inconsistent psk inputs")

// SuiteID returns "HPKE" || I2OSP(kem, 2) || I2OSP(kdf, 2) || I2OSP(aead, 2).
func SuiteID(kemID, kdfID, aeadID uint16) []byte {
	id := make([]byte, 10)
	copy(id, "HPKE")
	binary.BigEndian.PutUint16(id[4:], kemID)
	binary.BigEndian.PutUint16(id[6:], kdfID)
	binary.BigEndian.PutUint16(id[8:], aeadID)
	return id
}

// Input is everything the key schedule consumes.
type Input struct {
	Mode         Mode
	SharedSecret []byte
	Info         []byte
	PSK          []byte
	PSKID        []byte
}

// Params is the key schedule output. Key and BaseNonce are empty for the
// export-only AEAD.
type Params struct {
	Context        []byte
	Secret         []byte
	Key            []byte
	BaseNonce      []byte
	ExporterSecret []byte
}

// Zero wipes every secret field. Context is public and kept.
func (p *Params) Zero() {
	zeroize.All(p.Secret, p.Key, p.BaseNonce, p.ExporterSecret)
}

// Derive runs KeySchedule for a suite with AEAD sizes nk and nn.
func Derive(h *kdf.HKDF, suiteID []byte, in Input, nk, nn int) (*Params, error) {
	if err := verifyPSKInputs(in); err != nil {
		return nil, err
	}

	pskIDHash := h.LabeledExtract(nil, suiteID, "psk_id_hash", in.PSKID)
	infoHash := h.LabeledExtract(nil, suiteID, "info_hash", in.Info)

	ksc := make([]byte, 0, 1+len(pskIDHash)+len(infoHash))
	ksc = append(ksc, byte(in.Mode))
	ksc = append(ksc, pskIDHash...)
	ksc = append(ksc, infoHash...)

	p := &Params{Context: ksc}
	p.Secret = h.LabeledExtract(in.SharedSecret, suiteID, "secret", in.PSK)

	var err error
	if p.Key, err = h.LabeledExpand(p.Secret, suiteID, "key", ksc, nk); err != nil {
		p.Zero()
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	if p.BaseNonce, err = h.LabeledExpand(p.Secret, suiteID, "base_nonce", ksc, nn); err != nil {
		p.Zero()
		return nil, fmt.Errorf("failed to derive base nonce: %w", err)
	}
	if p.ExporterSecret, err = h.LabeledExpand(p.Secret, suiteID, "exp", ksc, h.Size()); err != nil {
		p.Zero()
		return nil, fmt.Errorf("failed to derive exporter secret: %w", err)
	}

	return p, nil
}

// verifyPSKInputs is VerifyPSKInputs: psk and psk_id travel together and are
// present exactly in the PSK modes.
func verifyPSKInputs(in Input) error {
	gotPSK := len(in.PSK) > 0
	gotPSKID := len(in.PSKID) > 0
	if gotPSK != gotPSKID {
		return fmt.Errorf("%w: psk and psk_id must both be set or both be empty", ErrInconsistentPSK)
	}

	switch in.Mode {
	case ModeBase, ModeAuth:
		if gotPSK {
			return fmt.Errorf("%w: psk given in mode %d", ErrInconsistentPSK, in.Mode)
		}
	case ModePSK, ModeAuthPSK:
		if !gotPSK {
			return fmt.Errorf("%w: missing psk in mode %d", ErrInconsistentPSK, in.Mode)
		}
	default:
		return fmt.Errorf("%w: unknown mode %d", ErrInconsistentPSK, in.Mode)
	}
	return nil
}
