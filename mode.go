package hpke

import (
	"fmt"

	"github.com/vaultsandbox/hpke-go/internal/schedule"
)

// ModeID is the one-byte operation mode identifier.
type ModeID uint8

const (
	ModeBase    = ModeID(schedule.ModeBase)
	ModePSK     = ModeID(schedule.ModePSK)
	ModeAuth    = ModeID(schedule.ModeAuth)
	ModeAuthPSK = ModeID(schedule.ModeAuthPSK)
)

func (m ModeID) String() string {
	switch m {
	case ModeBase:
		return "base"
	case ModePSK:
		return "psk"
	case ModeAuth:
		return "auth"
	case ModeAuthPSK:
		return "auth_psk"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// PSKBundle is a pre-shared key and its identifier. Both must be non-empty
// in the PSK modes.
type PSKBundle struct {
	PSK []byte
	ID  []byte
}

func (b PSKBundle) validate(mode ModeID) error {
	if len(b.PSK) == 0 {
		return &ModeError{Mode: mode, Reason: "empty psk"}
	}
	if len(b.ID) == 0 {
		return &ModeError{Mode: mode, Reason: "empty psk_id"}
	}
	return nil
}

// SenderMode selects the sender-side operation mode. The zero value is Base.
type SenderMode struct {
	id  ModeID
	skS *PrivateKey
	psk PSKBundle
}

// SenderBase is the unauthenticated mode.
func SenderBase() SenderMode { return SenderMode{id: ModeBase} }

// SenderPSK authenticates both sides with a pre-shared key.
func SenderPSK(psk PSKBundle) (SenderMode, error) {
	if err := psk.validate(ModePSK); err != nil {
		return SenderMode{}, err
	}
	return SenderMode{id: ModePSK, psk: psk}, nil
}

// SenderAuth authenticates the sender with its static private key.
func SenderAuth(skS *PrivateKey) (SenderMode, error) {
	if skS == nil {
		return SenderMode{}, &ModeError{Mode: ModeAuth, Reason: "missing sender private key"}
	}
	return SenderMode{id: ModeAuth, skS: skS}, nil
}

// SenderAuthPSK combines SenderAuth and SenderPSK.
func SenderAuthPSK(skS *PrivateKey, psk PSKBundle) (SenderMode, error) {
	if skS == nil {
		return SenderMode{}, &ModeError{Mode: ModeAuthPSK, Reason: "missing sender private key"}
	}
	if err := psk.validate(ModeAuthPSK); err != nil {
		return SenderMode{}, err
	}
	return SenderMode{id: ModeAuthPSK, skS: skS, psk: psk}, nil
}

// ID returns the mode identifier.
func (m SenderMode) ID() ModeID { return m.id }

// ReceiverMode selects the receiver-side operation mode. The zero value is Base.
type ReceiverMode struct {
	id  ModeID
	pkS *PublicKey
	psk PSKBundle
}

// ReceiverBase is the unauthenticated mode.
func ReceiverBase() ReceiverMode { return ReceiverMode{id: ModeBase} }

// ReceiverPSK expects the sender to use the same pre-shared key.
func ReceiverPSK(psk PSKBundle) (ReceiverMode, error) {
	if err := psk.validate(ModePSK); err != nil {
		return ReceiverMode{}, err
	}
	return ReceiverMode{id: ModePSK, psk: psk}, nil
}

// ReceiverAuth expects the sender to hold the private key of pkS.
func ReceiverAuth(pkS *PublicKey) (ReceiverMode, error) {
	if pkS == nil {
		return ReceiverMode{}, &ModeError{Mode: ModeAuth, Reason: "missing sender public key"}
	}
	return ReceiverMode{id: ModeAuth, pkS: pkS}, nil
}

// ReceiverAuthPSK combines ReceiverAuth and ReceiverPSK.
func ReceiverAuthPSK(pkS *PublicKey, psk PSKBundle) (ReceiverMode, error) {
	if pkS == nil {
		return ReceiverMode{}, &ModeError{Mode: ModeAuthPSK, Reason: "missing sender public key"}
	}
	if err := psk.validate(ModeAuthPSK); err != nil {
		return ReceiverMode{}, err
	}
	return ReceiverMode{id: ModeAuthPSK, pkS: pkS, psk: psk}, nil
}

// ID returns the mode identifier.
func (m ReceiverMode) ID() ModeID { return m.id }

// NewReceiverMode builds the receiver mode for id from whichever material it
// needs. Material the mode does not use must be absent.
func NewReceiverMode(id ModeID, pkS *PublicKey, psk PSKBundle) (ReceiverMode, error) {
	hasPSK := len(psk.PSK) > 0 || len(psk.ID) > 0
	switch id {
	case ModeBase:
		if pkS != nil || hasPSK {
			return ReceiverMode{}, &ModeError{Mode: id, Reason: "unexpected key material"}
		}
		return ReceiverBase(), nil
	case ModePSK:
		if pkS != nil {
			return ReceiverMode{}, &ModeError{Mode: id, Reason: "unexpected sender public key"}
		}
		return ReceiverPSK(psk)
	case ModeAuth:
		if hasPSK {
			return ReceiverMode{}, &ModeError{Mode: id, Reason: "unexpected psk"}
		}
		return ReceiverAuth(pkS)
	case ModeAuthPSK:
		return ReceiverAuthPSK(pkS, psk)
	}
	return ReceiverMode{}, &ModeError{Mode: id, Reason: "unknown mode"}
}

// NewSenderMode is the sender-side counterpart of NewReceiverMode.
func NewSenderMode(id ModeID, skS *PrivateKey, psk PSKBundle) (SenderMode, error) {
	hasPSK := len(psk.PSK) > 0 || len(psk.ID) > 0
	switch id {
	case ModeBase:
		if skS != nil || hasPSK {
			return SenderMode{}, &ModeError{Mode: id, Reason: "unexpected key material"}
		}
		return SenderBase(), nil
	case ModePSK:
		if skS != nil {
			return SenderMode{}, &ModeError{Mode: id, Reason: "unexpected sender private key"}
		}
		return SenderPSK(psk)
	case ModeAuth:
		if hasPSK {
			return SenderMode{}, &ModeError{Mode: id, Reason: "unexpected psk"}
		}
		return SenderAuth(skS)
	case ModeAuthPSK:
		return SenderAuthPSK(skS, psk)
	}
	return SenderMode{}, &ModeError{Mode: id, Reason: "unknown mode"}
}
