// Package kat loads RFC 9180 test vectors and checks the engine against
// them, from key derivation through exported secrets.
package kat

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vaultsandbox/hpke-go"
	"github.com/vaultsandbox/hpke-go/internal/aead"
	"github.com/vaultsandbox/hpke-go/internal/dhkem"
	"github.com/vaultsandbox/hpke-go/internal/encoding"
	"github.com/vaultsandbox/hpke-go/internal/kdf"
	"github.com/vaultsandbox/hpke-go/internal/schedule"
	"github.com/vaultsandbox/hpke-go/internal/session"
)

//go:embed vectors/rfc9180.json
var builtin []byte

var (
	// ErrUnsupported is returned for vectors naming an algorithm this
	// module does not implement.
	ErrUnsupported = errors.New("unsupported algorithm")

	// ErrMismatch is returned when a computed value differs from the vector.
	ErrMismatch = errors.New("value mismatch")
)

// Vector is one entry of the RFC 9180 test vector file.
type Vector struct {
	Mode   uint8  `json:"mode"`
	KEMID  uint16 `json:"kem_id"`
	KDFID  uint16 `json:"kdf_id"`
	AEADID uint16 `json:"aead_id"`

	Info  encoding.Hex `json:"info"`
	IKMR  encoding.Hex `json:"ikmR"`
	IKME  encoding.Hex `json:"ikmE"`
	IKMS  encoding.Hex `json:"ikmS,omitempty"`
	SKRm  encoding.Hex `json:"skRm"`
	SKEm  encoding.Hex `json:"skEm"`
	SKSm  encoding.Hex `json:"skSm,omitempty"`
	PKRm  encoding.Hex `json:"pkRm"`
	PKEm  encoding.Hex `json:"pkEm"`
	PKSm  encoding.Hex `json:"pkSm,omitempty"`
	PSK   encoding.Hex `json:"psk,omitempty"`
	PSKID encoding.Hex `json:"psk_id,omitempty"`

	Enc                encoding.Hex `json:"enc"`
	SharedSecret       encoding.Hex `json:"shared_secret"`
	KeyScheduleContext encoding.Hex `json:"key_schedule_context"`
	Secret             encoding.Hex `json:"secret"`
	Key                encoding.Hex `json:"key"`
	BaseNonce          encoding.Hex `json:"base_nonce"`
	ExporterSecret     encoding.Hex `json:"exporter_secret"`

	Encryptions []Encryption `json:"encryptions"`
	Exports     []Export     `json:"exports"`
}

// Encryption is one sealed message. Entries are consecutive sequence
// numbers starting at zero.
type Encryption struct {
	AAD   encoding.Hex `json:"aad"`
	CT    encoding.Hex `json:"ct"`
	Nonce encoding.Hex `json:"nonce"`
	PT    encoding.Hex `json:"pt"`
}

// Export is one exported secret.
type Export struct {
	ExporterContext encoding.Hex `json:"exporter_context"`
	L               int          `json:"L"`
	ExportedValue   encoding.Hex `json:"exported_value"`
}

// Name identifies the vector in logs and test output.
func (v *Vector) Name() string {
	return fmt.Sprintf("mode=%d kem=0x%04x kdf=0x%04x aead=0x%04x", v.Mode, v.KEMID, v.KDFID, v.AEADID)
}

// Builtin returns the vectors shipped with the module: every suite of
// RFC 9180 Appendix A, trimmed to the first encryptions of each.
func Builtin() ([]Vector, error) {
	return Load(bytes.NewReader(builtin))
}

// Load decodes a JSON array of vectors.
func Load(r io.Reader) ([]Vector, error) {
	var vs []Vector
	if err := json.NewDecoder(r).Decode(&vs); err != nil {
		return nil, fmt.Errorf("failed to decode test vectors: %w", err)
	}
	return vs, nil
}

// LoadFile decodes the vector file at path.
func LoadFile(path string) ([]Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Verify recomputes every value in v and returns the first difference.
// The sender side runs on the internal engine with the vector's ephemeral
// key; the receiver side runs through the public API.
func Verify(v *Vector) error {
	scheme, ok := dhkem.ByID(v.KEMID)
	if !ok {
		return fmt.Errorf("%w: kem 0x%04x", ErrUnsupported, v.KEMID)
	}
	h, ok := kdf.ByID(v.KDFID)
	if !ok {
		return fmt.Errorf("%w: kdf 0x%04x", ErrUnsupported, v.KDFID)
	}
	alg, ok := aead.ByID(v.AEADID)
	if !ok {
		return fmt.Errorf("%w: aead 0x%04x", ErrUnsupported, v.AEADID)
	}

	if err := verifyKeyPairs(scheme, v); err != nil {
		return err
	}

	var skS, pkS []byte
	if hasSender(v.Mode) {
		skS, pkS = v.SKSm, v.PKSm
	}

	sharedSecret, enc, err := scheme.EncapWithEphemeral(v.PKRm, skS, v.SKEm)
	if err != nil {
		return fmt.Errorf("encap: %w", err)
	}
	if err := compare("enc", enc, v.Enc); err != nil {
		return err
	}
	if err := compare("shared_secret", sharedSecret, v.SharedSecret); err != nil {
		return err
	}

	decapped, err := scheme.Decap(v.Enc, v.SKRm, pkS)
	if err != nil {
		return fmt.Errorf("decap: %w", err)
	}
	if err := compare("decap shared_secret", decapped, v.SharedSecret); err != nil {
		return err
	}

	suiteID := schedule.SuiteID(v.KEMID, v.KDFID, v.AEADID)
	params, err := schedule.Derive(h, suiteID, schedule.Input{
		Mode:         schedule.Mode(v.Mode),
		SharedSecret: sharedSecret,
		Info:         v.Info,
		PSK:          v.PSK,
		PSKID:        v.PSKID,
	}, alg.KeySize(), alg.NonceSize())
	if err != nil {
		return fmt.Errorf("key schedule: %w", err)
	}
	checks := []struct {
		field     string
		got, want []byte
	}{
		{"key_schedule_context", params.Context, v.KeyScheduleContext},
		{"secret", params.Secret, v.Secret},
		{"key", params.Key, v.Key},
		{"base_nonce", params.BaseNonce, v.BaseNonce},
		{"exporter_secret", params.ExporterSecret, v.ExporterSecret},
	}
	for _, c := range checks {
		if err := compare(c.field, c.got, c.want); err != nil {
			return err
		}
	}

	sender, err := session.New(session.Sender, alg, h, suiteID, params)
	if err != nil {
		return fmt.Errorf("sender context: %w", err)
	}
	defer sender.Close()

	for i, e := range v.Encryptions {
		ct, err := sender.Seal(e.AAD, e.PT)
		if err != nil {
			return fmt.Errorf("seal %d: %w", i, err)
		}
		if err := compare(fmt.Sprintf("encryptions[%d].ct", i), ct, e.CT); err != nil {
			return err
		}
	}

	receiver, err := setupReceiver(v)
	if err != nil {
		return fmt.Errorf("setup receiver: %w", err)
	}
	defer receiver.Close()

	for i, e := range v.Encryptions {
		pt, err := receiver.Open(e.AAD, e.CT)
		if err != nil {
			return fmt.Errorf("open %d: %w", i, err)
		}
		if err := compare(fmt.Sprintf("encryptions[%d].pt", i), pt, e.PT); err != nil {
			return err
		}
	}

	for i, x := range v.Exports {
		got, err := sender.Export(x.ExporterContext, x.L)
		if err != nil {
			return fmt.Errorf("sender export %d: %w", i, err)
		}
		if err := compare(fmt.Sprintf("exports[%d]", i), got, x.ExportedValue); err != nil {
			return err
		}
		got, err = receiver.Export(x.ExporterContext, x.L)
		if err != nil {
			return fmt.Errorf("receiver export %d: %w", i, err)
		}
		if err := compare(fmt.Sprintf("exports[%d] receiver", i), got, x.ExportedValue); err != nil {
			return err
		}
	}
	return nil
}

type keyPair struct {
	name        string
	ikm, sk, pk []byte
}

func verifyKeyPairs(scheme *dhkem.Scheme, v *Vector) error {
	pairs := []keyPair{
		{"R", v.IKMR, v.SKRm, v.PKRm},
		{"E", v.IKME, v.SKEm, v.PKEm},
	}
	if hasSender(v.Mode) {
		pairs = append(pairs, keyPair{"S", v.IKMS, v.SKSm, v.PKSm})
	}

	for _, p := range pairs {
		sk, pk, err := scheme.DeriveKeyPair(p.ikm)
		if err != nil {
			return fmt.Errorf("derive key pair %s: %w", p.name, err)
		}
		if err := compare("sk"+p.name+"m", sk, p.sk); err != nil {
			return err
		}
		if err := compare("pk"+p.name+"m", pk, p.pk); err != nil {
			return err
		}
	}
	return nil
}

func setupReceiver(v *Vector) (*hpke.ReceiverContext, error) {
	suite, err := hpke.NewSuite(hpke.KEMID(v.KEMID), hpke.KDFID(v.KDFID), hpke.AEADID(v.AEADID))
	if err != nil {
		return nil, err
	}
	skR, err := suite.KEM.UnmarshalPrivateKey(v.SKRm)
	if err != nil {
		return nil, err
	}
	var pkS *hpke.PublicKey
	if hasSender(v.Mode) {
		if pkS, err = suite.KEM.UnmarshalPublicKey(v.PKSm); err != nil {
			return nil, err
		}
	}
	mode, err := hpke.NewReceiverMode(hpke.ModeID(v.Mode), pkS, hpke.PSKBundle{PSK: v.PSK, ID: v.PSKID})
	if err != nil {
		return nil, err
	}
	return hpke.SetupReceiver(suite, mode, skR, v.Enc, v.Info)
}

func hasSender(mode uint8) bool {
	return schedule.Mode(mode) == schedule.ModeAuth || schedule.Mode(mode) == schedule.ModeAuthPSK
}

func compare(field string, got, want []byte) error {
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: %s: got %x, want %x", ErrMismatch, field, got, want)
	}
	return nil
}

// Failure records a vector that did not verify.
type Failure struct {
	Name string
	Err  error
}

// Summary is the outcome of VerifyAll.
type Summary struct {
	Passed   int
	Skipped  int
	Failures []Failure
}

// OK reports whether no vector failed.
func (s *Summary) OK() bool { return len(s.Failures) == 0 }

// VerifyAll runs Verify over vs. Vectors with unsupported algorithms are
// counted as skipped.
func VerifyAll(vs []Vector) *Summary {
	sum := &Summary{}
	for i := range vs {
		err := Verify(&vs[i])
		switch {
		case err == nil:
			sum.Passed++
		case errors.Is(err, ErrUnsupported):
			sum.Skipped++
		default:
			sum.Failures = append(sum.Failures, Failure{Name: vs[i].Name(), Err: err})
		}
	}
	return sum
}
