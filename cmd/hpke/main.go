// Command hpke seals, opens and exports with RFC 9180 HPKE from the command
// line. Requests are JSON objects read from stdin; byte fields are base64url.
//
// Flags can also be set through HPKE_* environment variables, which are in
// turn read from a .env file when one is present.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/vaultsandbox/hpke-go"
)

const (
	flagKEM       = "kem"
	flagKDF       = "kdf"
	flagAEAD      = "aead"
	flagMode      = "mode"
	flagLogLevel  = "loglevel"
	flagLogFormat = "log-format"
	flagVectors   = "vectors"
	flagIKM       = "ikm"

	logFormatJSON = "json"
)

// Config holds the streams the command reads from and writes to.
type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultConfig returns a Config wired to the process streams.
func DefaultConfig() *Config {
	return &Config{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func run(args []string, cfg *Config) error {
	if err := loadDotEnv(); err != nil {
		return err
	}
	return newApp(cfg).Run(args)
}

// loadDotEnv reads HPKE_ENV_FILE, or .env by default. A missing file is
// not an error.
func loadDotEnv() error {
	path := os.Getenv("HPKE_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func newApp(cfg *Config) *cli.App {
	cmd := &command{cfg: cfg}

	return &cli.App{
		Name:      "hpke",
		Usage:     "Hybrid Public Key Encryption (RFC 9180)",
		Reader:    cfg.Stdin,
		Writer:    cfg.Stdout,
		ErrWriter: cfg.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagKEM,
				Value:   "x25519",
				Usage:   "KEM name (p256, p384, p521, secp256k1, x25519, x448) or registry id",
				EnvVars: []string{"HPKE_KEM"},
			},
			&cli.StringFlag{
				Name:    flagKDF,
				Value:   "hkdf-sha256",
				Usage:   "KDF name (hkdf-sha256, hkdf-sha384, hkdf-sha512) or registry id",
				EnvVars: []string{"HPKE_KDF"},
			},
			&cli.StringFlag{
				Name:    flagAEAD,
				Value:   "aes128gcm",
				Usage:   "AEAD name (aes128gcm, aes256gcm, chacha20poly1305, export-only) or registry id",
				EnvVars: []string{"HPKE_AEAD"},
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"HPKE_LOGLEVEL"},
			},
			&cli.StringFlag{
				Name:    flagLogFormat,
				Value:   "console",
				Usage:   "Log output format (console, json)",
				EnvVars: []string{"HPKE_LOG_FORMAT"},
			},
		},
		Before: cmd.setup,
		Commands: []*cli.Command{
			{
				Name:   "keygen",
				Usage:  "Generate a random key pair for the selected KEM",
				Action: cmd.keygen,
			},
			{
				Name:  "derive",
				Usage: "Derive a key pair from input keying material",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     flagIKM,
						Usage:    "Input keying material, hex encoded",
						Required: true,
					},
				},
				Action: cmd.derive,
			},
			{
				Name:   "seal",
				Usage:  "Encrypt one message to a public key",
				Flags:  []cli.Flag{modeFlag()},
				Action: cmd.seal,
			},
			{
				Name:   "open",
				Usage:  "Decrypt one message with a private key",
				Flags:  []cli.Flag{modeFlag()},
				Action: cmd.open,
			},
			{
				Name:   "export",
				Usage:  "Export a secret as the sender (public_key) or receiver (private_key and enc)",
				Flags:  []cli.Flag{modeFlag()},
				Action: cmd.export,
			},
			{
				Name:  "vectors",
				Usage: "Verify the engine against RFC 9180 test vectors",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagVectors,
						Usage:   "Path to a test vector file; the built-in vectors are used when empty",
						EnvVars: []string{"HPKE_VECTORS"},
					},
				},
				Action: cmd.vectors,
			},
		},
	}
}

func modeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagMode,
		Value:   "base",
		Usage:   "Operation mode (base, psk, auth, auth_psk)",
		EnvVars: []string{"HPKE_MODE"},
	}
}

// newLogger writes to stderr so that stdout carries only JSON results.
func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}

	if format != logFormatJSON {
		out := w
		if f, ok := w.(*os.File); ok {
			out = colorable.NewColorable(f)
		}
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl), nil
}

var (
	kemNames = map[string]hpke.KEMID{
		"p256":      hpke.KEMP256HKDFSHA256,
		"p384":      hpke.KEMP384HKDFSHA384,
		"p521":      hpke.KEMP521HKDFSHA512,
		"secp256k1": hpke.KEMSecp256k1HKDFSHA256,
		"x25519":    hpke.KEMX25519HKDFSHA256,
		"x448":      hpke.KEMX448HKDFSHA512,
	}
	kdfNames = map[string]hpke.KDFID{
		"hkdf-sha256": hpke.KDFHKDFSHA256,
		"hkdf-sha384": hpke.KDFHKDFSHA384,
		"hkdf-sha512": hpke.KDFHKDFSHA512,
	}
	aeadNames = map[string]hpke.AEADID{
		"aes128gcm":        hpke.AEADAES128GCM,
		"aes256gcm":        hpke.AEADAES256GCM,
		"chacha20poly1305": hpke.AEADChaCha20Poly1305,
		"export-only":      hpke.AEADExportOnly,
	}
	modeNames = map[string]hpke.ModeID{
		"base":     hpke.ModeBase,
		"psk":      hpke.ModePSK,
		"auth":     hpke.ModeAuth,
		"auth_psk": hpke.ModeAuthPSK,
	}
)

// parseID resolves a name from names, or a decimal or 0x-prefixed registry
// identifier.
func parseID[T ~uint8 | ~uint16](kind, s string, names map[string]T, bits int) (T, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if id, ok := names[key]; ok {
		return id, nil
	}
	n, err := strconv.ParseUint(key, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("unknown %s %q", kind, s)
	}
	return T(n), nil
}

func parseSuite(kemName, kdfName, aeadName string) (hpke.Suite, error) {
	kemID, err := parseID("kem", kemName, kemNames, 16)
	if err != nil {
		return hpke.Suite{}, err
	}
	kdfID, err := parseID("kdf", kdfName, kdfNames, 16)
	if err != nil {
		return hpke.Suite{}, err
	}
	aeadID, err := parseID("aead", aeadName, aeadNames, 16)
	if err != nil {
		return hpke.Suite{}, err
	}
	return hpke.NewSuite(kemID, kdfID, aeadID)
}

func parseMode(s string) (hpke.ModeID, error) {
	return parseID("mode", s, modeNames, 8)
}
