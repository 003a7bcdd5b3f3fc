package hpke

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/vaultsandbox/hpke-go/internal/session"
)

// encryptionContext holds what sender and receiver contexts share.
type encryptionContext struct {
	s      *session.Context
	suite  Suite
	mode   ModeID
	logger zerolog.Logger
}

// Export derives length bytes from the exporter secret, bound to
// exporterContext. It does not advance the sequence number.
func (c *encryptionContext) Export(exporterContext []byte, length int) ([]byte, error) {
	out, err := c.s.Export(exporterContext, length)
	if err != nil {
		return nil, wrapError(err)
	}
	return out, nil
}

// Overhead is the number of bytes Seal adds to a plaintext.
func (c *encryptionContext) Overhead() int { return c.s.Overhead() }

// Suite returns the suite the context was set up with.
func (c *encryptionContext) Suite() Suite { return c.suite }

// Mode returns the operation mode the context was set up with.
func (c *encryptionContext) Mode() ModeID { return c.mode }

// Close wipes the key, base nonce and exporter secret. Every later call
// returns ErrContextClosed.
func (c *encryptionContext) Close() {
	if c.s.Closed() {
		return
	}
	c.s.Close()
	c.logger.Debug().Stringer("role", c.s.Role()).Msg("hpke context closed")
}

func (c *encryptionContext) check(err error) error {
	if errors.Is(err, session.ErrSequenceOverflow) {
		c.logger.Warn().
			Stringer("role", c.s.Role()).
			Str("suite", c.suite.String()).
			Msg("sequence number limit reached, context disabled")
	}
	return wrapError(err)
}

// SenderContext seals messages to one receiver. It is not safe for concurrent
// use.
type SenderContext struct {
	encryptionContext
}

// Seal encrypts and authenticates plaintext and binds it to aad. Messages
// must be opened in the order they were sealed.
func (c *SenderContext) Seal(aad, plaintext []byte) ([]byte, error) {
	ct, err := c.s.Seal(aad, plaintext)
	if err != nil {
		return nil, c.check(err)
	}
	return ct, nil
}

// ReceiverContext opens messages from one sender. It is not safe for
// concurrent use.
type ReceiverContext struct {
	encryptionContext
}

// Open authenticates and decrypts ciphertext. A failed Open returns
// ErrAuthentication and leaves the sequence number unchanged.
func (c *ReceiverContext) Open(aad, ciphertext []byte) ([]byte, error) {
	pt, err := c.s.Open(aad, ciphertext)
	if err != nil {
		return nil, c.check(err)
	}
	return pt, nil
}
