package hpke

import (
	"errors"
	"fmt"

	"github.com/vaultsandbox/hpke-go/internal/schedule"
	"github.com/vaultsandbox/hpke-go/internal/session"
	"github.com/vaultsandbox/hpke-go/internal/zeroize"
)

var errIncompleteSuite = errors.New("suite is missing an algorithm")

// SetupSender encapsulates to pkR and returns the encapsulated key together
// with a context for sealing. enc must reach the receiver alongside the
// ciphertexts.
func SetupSender(suite Suite, mode SenderMode, pkR *PublicKey, info []byte, opts ...Option) ([]byte, *SenderContext, error) {
	cfg := newConfig(opts)

	if !suite.valid() {
		return nil, nil, errIncompleteSuite
	}
	if pkR == nil || pkR.kem != suite.KEM.ID() {
		return nil, nil, fmt.Errorf("%w: recipient key", ErrKeyMismatch)
	}
	if mode.skS != nil && mode.skS.kem != suite.KEM.ID() {
		return nil, nil, fmt.Errorf("%w: sender key", ErrKeyMismatch)
	}

	sharedSecret, enc, err := suite.KEM.Encap(cfg.rand, pkR, mode.skS)
	if err != nil {
		return nil, nil, err
	}
	defer zeroize.Bytes(sharedSecret)

	ec, err := newEncryptionContext(suite, session.Sender, mode.id, sharedSecret, info, mode.psk, cfg)
	if err != nil {
		return nil, nil, err
	}
	return enc, &SenderContext{encryptionContext: *ec}, nil
}

// SetupReceiver decapsulates enc with skR and returns a context for opening.
func SetupReceiver(suite Suite, mode ReceiverMode, skR *PrivateKey, enc, info []byte, opts ...Option) (*ReceiverContext, error) {
	cfg := newConfig(opts)

	if !suite.valid() {
		return nil, errIncompleteSuite
	}
	if skR == nil || skR.kem != suite.KEM.ID() {
		return nil, fmt.Errorf("%w: recipient key", ErrKeyMismatch)
	}
	if mode.pkS != nil && mode.pkS.kem != suite.KEM.ID() {
		return nil, fmt.Errorf("%w: sender key", ErrKeyMismatch)
	}

	sharedSecret, err := suite.KEM.Decap(enc, skR, mode.pkS)
	if err != nil {
		return nil, err
	}
	defer zeroize.Bytes(sharedSecret)

	ec, err := newEncryptionContext(suite, session.Receiver, mode.id, sharedSecret, info, mode.psk, cfg)
	if err != nil {
		return nil, err
	}
	return &ReceiverContext{encryptionContext: *ec}, nil
}

// newEncryptionContext runs the key schedule and wraps its output.
func newEncryptionContext(suite Suite, role session.Role, mode ModeID, sharedSecret, info []byte, psk PSKBundle, cfg *config) (*encryptionContext, error) {
	alg := suite.AEAD.algorithm()
	h := suite.KDF.hkdf()
	suiteID := suite.ID()

	params, err := schedule.Derive(h, suiteID, schedule.Input{
		Mode:         schedule.Mode(mode),
		SharedSecret: sharedSecret,
		Info:         info,
		PSK:          psk.PSK,
		PSKID:        psk.ID,
	}, alg.KeySize(), alg.NonceSize())
	if err != nil {
		if errors.Is(err, schedule.ErrInconsistentPSK) {
			return nil, &ModeError{Mode: mode, Reason: err.Error()}
		}
		return nil, fmt.Errorf("key schedule: %w", err)
	}
	defer params.Zero()

	s, err := session.New(role, alg, h, suiteID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	cfg.logger.Debug().
		Str("suite", suite.String()).
		Stringer("mode", mode).
		Stringer("role", role).
		Msg("hpke context established")

	return &encryptionContext{s: s, suite: suite, mode: mode, logger: cfg.logger}, nil
}
