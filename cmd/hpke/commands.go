package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/vaultsandbox/hpke-go"
	"github.com/vaultsandbox/hpke-go/internal/encoding"
	"github.com/vaultsandbox/hpke-go/internal/kat"
)

// Request is the JSON object read from stdin. Each command uses the fields
// it needs and ignores the rest.
type Request struct {
	PublicKey        encoding.Base64URL `json:"public_key,omitempty"`
	PrivateKey       encoding.Base64URL `json:"private_key,omitempty"`
	SenderPublicKey  encoding.Base64URL `json:"sender_public_key,omitempty"`
	SenderPrivateKey encoding.Base64URL `json:"sender_private_key,omitempty"`
	PSK              encoding.Base64URL `json:"psk,omitempty"`
	PSKID            encoding.Base64URL `json:"psk_id,omitempty"`
	Enc              encoding.Base64URL `json:"enc,omitempty"`
	Info             encoding.Base64URL `json:"info,omitempty"`
	AAD              encoding.Base64URL `json:"aad,omitempty"`
	Plaintext        encoding.Base64URL `json:"plaintext,omitempty"`
	Ciphertext       encoding.Base64URL `json:"ciphertext,omitempty"`
	ExporterContext  encoding.Base64URL `json:"exporter_context,omitempty"`
	Length           int                `json:"length,omitempty"`
}

// Response is the JSON object written to stdout.
type Response struct {
	Suite      string             `json:"suite"`
	Mode       string             `json:"mode,omitempty"`
	PublicKey  encoding.Base64URL `json:"public_key,omitempty"`
	PrivateKey encoding.Base64URL `json:"private_key,omitempty"`
	Enc        encoding.Base64URL `json:"enc,omitempty"`
	Ciphertext encoding.Base64URL `json:"ciphertext,omitempty"`
	Plaintext  encoding.Base64URL `json:"plaintext,omitempty"`
	Secret     encoding.Base64URL `json:"secret,omitempty"`
}

// VectorSummary is the output of the vectors command.
type VectorSummary struct {
	Passed  int `json:"passed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

var errVectorsFailed = errors.New("test vectors failed")

// command carries state shared by the subcommands once the global flags
// have been parsed.
type command struct {
	cfg   *Config
	log   zerolog.Logger
	suite hpke.Suite
}

func (c *command) setup(ctx *cli.Context) error {
	log, err := newLogger(c.cfg.Stderr, ctx.String(flagLogLevel), ctx.String(flagLogFormat))
	if err != nil {
		return err
	}
	c.log = log

	c.suite, err = parseSuite(ctx.String(flagKEM), ctx.String(flagKDF), ctx.String(flagAEAD))
	if err != nil {
		return err
	}
	return nil
}

func (c *command) keygen(ctx *cli.Context) error {
	sk, err := c.suite.KEM.GenerateKeyPair(nil)
	if err != nil {
		return fmt.Errorf("generate key pair: %w", err)
	}
	defer sk.Zero()

	return c.write(&Response{
		PublicKey:  sk.PublicKey().Bytes(),
		PrivateKey: sk.Bytes(),
	})
}

func (c *command) derive(ctx *cli.Context) error {
	ikm, err := hex.DecodeString(ctx.String(flagIKM))
	if err != nil {
		return fmt.Errorf("decode ikm: %w", err)
	}

	sk, err := c.suite.KEM.DeriveKeyPair(ikm)
	if err != nil {
		return fmt.Errorf("derive key pair: %w", err)
	}
	defer sk.Zero()

	return c.write(&Response{
		PublicKey:  sk.PublicKey().Bytes(),
		PrivateKey: sk.Bytes(),
	})
}

func (c *command) seal(ctx *cli.Context) error {
	req, err := c.read()
	if err != nil {
		return err
	}
	mode, err := c.senderMode(ctx, req)
	if err != nil {
		return err
	}
	pkR, err := c.suite.KEM.UnmarshalPublicKey(req.PublicKey)
	if err != nil {
		return fmt.Errorf("recipient public key: %w", err)
	}

	enc, ct, err := hpke.Seal(c.suite, mode, pkR, req.Info, req.AAD, req.Plaintext, hpke.WithLogger(c.log))
	if err != nil {
		return fmt.Errorf("seal: %w", err)
	}
	return c.write(&Response{Mode: mode.ID().String(), Enc: enc, Ciphertext: ct})
}

func (c *command) open(ctx *cli.Context) error {
	req, err := c.read()
	if err != nil {
		return err
	}
	mode, err := c.receiverMode(ctx, req)
	if err != nil {
		return err
	}
	skR, err := c.suite.KEM.UnmarshalPrivateKey(req.PrivateKey)
	if err != nil {
		return fmt.Errorf("recipient private key: %w", err)
	}
	defer skR.Zero()

	pt, err := hpke.Open(c.suite, mode, skR, req.Enc, req.Info, req.AAD, req.Ciphertext, hpke.WithLogger(c.log))
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	return c.write(&Response{Mode: mode.ID().String(), Plaintext: pt})
}

func (c *command) export(ctx *cli.Context) error {
	req, err := c.read()
	if err != nil {
		return err
	}

	if len(req.PrivateKey) == 0 {
		mode, err := c.senderMode(ctx, req)
		if err != nil {
			return err
		}
		pkR, err := c.suite.KEM.UnmarshalPublicKey(req.PublicKey)
		if err != nil {
			return fmt.Errorf("recipient public key: %w", err)
		}
		enc, secret, err := hpke.SendExport(c.suite, mode, pkR, req.Info, req.ExporterContext, req.Length, hpke.WithLogger(c.log))
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		return c.write(&Response{Mode: mode.ID().String(), Enc: enc, Secret: secret})
	}

	mode, err := c.receiverMode(ctx, req)
	if err != nil {
		return err
	}
	skR, err := c.suite.KEM.UnmarshalPrivateKey(req.PrivateKey)
	if err != nil {
		return fmt.Errorf("recipient private key: %w", err)
	}
	defer skR.Zero()

	secret, err := hpke.ReceiveExport(c.suite, mode, skR, req.Enc, req.Info, req.ExporterContext, req.Length, hpke.WithLogger(c.log))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return c.write(&Response{Mode: mode.ID().String(), Secret: secret})
}

func (c *command) vectors(ctx *cli.Context) error {
	var (
		vs  []kat.Vector
		err error
	)
	if path := ctx.String(flagVectors); path != "" {
		vs, err = kat.LoadFile(path)
	} else {
		vs, err = kat.Builtin()
	}
	if err != nil {
		return err
	}

	sum := kat.VerifyAll(vs)
	for _, f := range sum.Failures {
		c.log.Error().Err(f.Err).Str("vector", f.Name).Msg("test vector failed")
	}
	c.log.Info().
		Int("passed", sum.Passed).
		Int("skipped", sum.Skipped).
		Int("failed", len(sum.Failures)).
		Msg("test vectors verified")

	if err := json.NewEncoder(c.cfg.Stdout).Encode(VectorSummary{
		Passed:  sum.Passed,
		Skipped: sum.Skipped,
		Failed:  len(sum.Failures),
	}); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if !sum.OK() {
		return fmt.Errorf("%w: %d of %d", errVectorsFailed, len(sum.Failures), len(vs))
	}
	return nil
}

func (c *command) senderMode(ctx *cli.Context, req *Request) (hpke.SenderMode, error) {
	id, err := parseMode(ctx.String(flagMode))
	if err != nil {
		return hpke.SenderMode{}, err
	}
	var skS *hpke.PrivateKey
	if len(req.SenderPrivateKey) > 0 {
		if skS, err = c.suite.KEM.UnmarshalPrivateKey(req.SenderPrivateKey); err != nil {
			return hpke.SenderMode{}, fmt.Errorf("sender private key: %w", err)
		}
	}
	return hpke.NewSenderMode(id, skS, hpke.PSKBundle{PSK: req.PSK, ID: req.PSKID})
}

func (c *command) receiverMode(ctx *cli.Context, req *Request) (hpke.ReceiverMode, error) {
	id, err := parseMode(ctx.String(flagMode))
	if err != nil {
		return hpke.ReceiverMode{}, err
	}
	var pkS *hpke.PublicKey
	if len(req.SenderPublicKey) > 0 {
		if pkS, err = c.suite.KEM.UnmarshalPublicKey(req.SenderPublicKey); err != nil {
			return hpke.ReceiverMode{}, fmt.Errorf("sender public key: %w", err)
		}
	}
	return hpke.NewReceiverMode(id, pkS, hpke.PSKBundle{PSK: req.PSK, ID: req.PSKID})
}

func (c *command) read() (*Request, error) {
	data, err := io.ReadAll(c.cfg.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	return &req, nil
}

func (c *command) write(resp *Response) error {
	resp.Suite = c.suite.String()
	if err := json.NewEncoder(c.cfg.Stdout).Encode(resp); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
