package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultsandbox/hpke-go"
	"github.com/vaultsandbox/hpke-go/internal/encoding"
	"github.com/vaultsandbox/hpke-go/internal/kat"
)

type errorReader struct{}

func (errorReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func runCLI(t *testing.T, stdin any, args ...string) (*bytes.Buffer, *bytes.Buffer, error) {
	t.Helper()

	var in []byte
	switch v := stdin.(type) {
	case nil:
	case string:
		in = []byte(v)
	default:
		var err error
		in, err = json.Marshal(v)
		require.NoError(t, err)
	}

	var stdout, stderr bytes.Buffer
	cfg := &Config{
		Stdin:  bytes.NewReader(in),
		Stdout: &stdout,
		Stderr: &stderr,
	}
	err := run(append([]string{"hpke", "--log-format", "json"}, args...), cfg)
	return &stdout, &stderr, err
}

func decodeResponse(t *testing.T, out *bytes.Buffer) *Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	return &resp
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, os.Stdin, cfg.Stdin)
	assert.Equal(t, os.Stdout, cfg.Stdout)
	assert.Equal(t, os.Stderr, cfg.Stderr)
}

func TestKeygen(t *testing.T) {
	tests := []struct {
		kem     string
		pkSize  int
		skSize  int
		wantKEM string
	}{
		{"x25519", 32, 32, "DHKEM(X25519, HKDF-SHA256)"},
		{"p256", 65, 32, "DHKEM(P-256, HKDF-SHA256)"},
		{"0x0012", 133, 66, "DHKEM(P-521, HKDF-SHA512)"},
		{"secp256k1", 65, 32, "DHKEM(secp256k1, HKDF-SHA256)"},
		{"X448", 56, 56, "DHKEM(X448, HKDF-SHA512)"},
	}

	for _, tt := range tests {
		t.Run(tt.kem, func(t *testing.T) {
			out, _, err := runCLI(t, nil, "--kem", tt.kem, "keygen")
			require.NoError(t, err)

			resp := decodeResponse(t, out)
			assert.Len(t, resp.PublicKey, tt.pkSize)
			assert.Len(t, resp.PrivateKey, tt.skSize)
			assert.True(t, strings.HasPrefix(resp.Suite, tt.wantKEM))
		})
	}
}

func TestDerive_KnownAnswer(t *testing.T) {
	out, _, err := runCLI(t, nil, "derive", "--ikm", "6db9df30aa07dd42ee5e8181afdb977e538f5e1fec8a06223f33f7013e525037")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, mustHex(t, "3948cfe0ad1ddb695d780e59077195da6c56506b027329794ab02bca80815c4d"), []byte(resp.PublicKey))
	assert.Equal(t, mustHex(t, "4612c550263fc8ad58375df3f557aac531d26850903e55a9f23f21d8534e8ac8"), []byte(resp.PrivateKey))
	assert.Equal(t, "DHKEM(X25519, HKDF-SHA256), HKDF-SHA256, AES-128-GCM", resp.Suite)

	_, _, err = runCLI(t, nil, "derive", "--ikm", "zz")
	assert.ErrorContains(t, err, "decode ikm")

	_, _, err = runCLI(t, nil, "derive", "--ikm", "00")
	assert.ErrorIs(t, err, hpke.ErrDecode)
}

func TestSealOpen_AllModes(t *testing.T) {
	for _, mode := range []string{"base", "psk", "auth", "auth_psk"} {
		t.Run(mode, func(t *testing.T) {
			global := []string{"--kem", "p256", "--aead", "chacha20poly1305"}

			out, _, err := runCLI(t, nil, append(global, "keygen")...)
			require.NoError(t, err)
			recipient := decodeResponse(t, out)

			out, _, err = runCLI(t, nil, append(global, "keygen")...)
			require.NoError(t, err)
			sender := decodeResponse(t, out)

			sealReq := Request{
				PublicKey: recipient.PublicKey,
				Info:      []byte("cli test"),
				AAD:       []byte("header"),
				Plaintext: []byte("attack at dawn"),
			}
			openReq := Request{
				PrivateKey: recipient.PrivateKey,
				Info:       []byte("cli test"),
				AAD:        []byte("header"),
			}
			if strings.HasPrefix(mode, "auth") {
				sealReq.SenderPrivateKey = sender.PrivateKey
				openReq.SenderPublicKey = sender.PublicKey
			}
			if strings.HasSuffix(mode, "psk") {
				sealReq.PSK, sealReq.PSKID = []byte("0123456789abcdef0123456789abcdef"), []byte("psk-1")
				openReq.PSK, openReq.PSKID = sealReq.PSK, sealReq.PSKID
			}

			out, _, err = runCLI(t, sealReq, append(global, "seal", "--mode", mode)...)
			require.NoError(t, err)
			sealed := decodeResponse(t, out)
			assert.Equal(t, mode, sealed.Mode)
			assert.Len(t, sealed.Enc, 65)
			assert.Len(t, sealed.Ciphertext, len("attack at dawn")+16)

			openReq.Enc = sealed.Enc
			openReq.Ciphertext = sealed.Ciphertext
			out, _, err = runCLI(t, openReq, append(global, "open", "--mode", mode)...)
			require.NoError(t, err)
			opened := decodeResponse(t, out)
			assert.Equal(t, []byte("attack at dawn"), []byte(opened.Plaintext))

			openReq.Ciphertext[0] ^= 0x01
			_, _, err = runCLI(t, openReq, append(global, "open", "--mode", mode)...)
			assert.ErrorIs(t, err, hpke.ErrAuthentication)
		})
	}
}

func TestExport_SenderAndReceiverAgree(t *testing.T) {
	global := []string{"--kem", "x448", "--kdf", "hkdf-sha512", "--aead", "export-only"}

	out, _, err := runCLI(t, nil, append(global, "keygen")...)
	require.NoError(t, err)
	recipient := decodeResponse(t, out)

	out, _, err = runCLI(t, Request{
		PublicKey:       recipient.PublicKey,
		Info:            []byte("export test"),
		ExporterContext: []byte("channel binding"),
		Length:          48,
	}, append(global, "export")...)
	require.NoError(t, err)
	sent := decodeResponse(t, out)
	assert.Len(t, sent.Secret, 48)
	assert.Len(t, sent.Enc, 56)

	out, _, err = runCLI(t, Request{
		PrivateKey:      recipient.PrivateKey,
		Enc:             sent.Enc,
		Info:            []byte("export test"),
		ExporterContext: []byte("channel binding"),
		Length:          48,
	}, append(global, "export")...)
	require.NoError(t, err)
	received := decodeResponse(t, out)
	assert.Equal(t, []byte(sent.Secret), []byte(received.Secret))

	_, _, err = runCLI(t, Request{PublicKey: recipient.PublicKey, Plaintext: []byte("x")}, append(global, "seal")...)
	assert.ErrorIs(t, err, hpke.ErrExportOnly)

	_, _, err = runCLI(t, Request{PublicKey: recipient.PublicKey, Length: 255*64 + 1}, append(global, "export")...)
	assert.ErrorIs(t, err, hpke.ErrExportLength)
}

func TestVectors_Builtin(t *testing.T) {
	out, stderr, err := runCLI(t, nil, "vectors")
	require.NoError(t, err)

	var sum VectorSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &sum))
	assert.Equal(t, VectorSummary{Passed: 128}, sum)
	assert.Contains(t, stderr.String(), "test vectors verified")
}

func TestVectors_FileWithFailure(t *testing.T) {
	vs, err := kat.Builtin()
	require.NoError(t, err)
	vs = vs[:3]
	vs[1].Key[0] ^= 0x01
	vs[2].AEADID = 0x0042

	data, err := json.Marshal(vs)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "vectors.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, stderr, err := runCLI(t, nil, "vectors", "--vectors", path)
	require.ErrorIs(t, err, errVectorsFailed)

	var sum VectorSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &sum))
	assert.Equal(t, VectorSummary{Passed: 1, Skipped: 1, Failed: 1}, sum)
	assert.Contains(t, stderr.String(), "test vector failed")
	assert.Contains(t, stderr.String(), vs[1].Name())

	_, _, err = runCLI(t, nil, "vectors", "--vectors", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("HPKE_AEAD", "chacha20poly1305")

	out, _, err := runCLI(t, nil, "keygen")
	require.NoError(t, err)
	assert.Equal(t, "DHKEM(X25519, HKDF-SHA256), HKDF-SHA256, ChaCha20-Poly1305", decodeResponse(t, out).Suite)
}

func TestDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HPKE_KEM=p384\nHPKE_KDF=hkdf-sha384\n"), 0o600))
	t.Setenv("HPKE_ENV_FILE", path)
	t.Cleanup(func() {
		os.Unsetenv("HPKE_KEM")
		os.Unsetenv("HPKE_KDF")
	})

	out, _, err := runCLI(t, nil, "keygen")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, "DHKEM(P-384, HKDF-SHA384), HKDF-SHA384, AES-128-GCM", resp.Suite)
	assert.Len(t, resp.PublicKey, 97)
}

func TestDotEnvFile_Unreadable(t *testing.T) {
	t.Setenv("HPKE_ENV_FILE", t.TempDir())

	_, _, err := runCLI(t, nil, "keygen")
	assert.Error(t, err)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name    string
		stdin   any
		args    []string
		wantErr string
	}{
		{"unknown kem", nil, []string{"--kem", "nope", "keygen"}, `unknown kem "nope"`},
		{"unknown kdf", nil, []string{"--kdf", "md5", "keygen"}, `unknown kdf "md5"`},
		{"unsupported aead id", nil, []string{"--aead", "0x0007", "keygen"}, "unsupported algorithm"},
		{"bad log level", nil, []string{"--loglevel", "loud", "keygen"}, `invalid log level "loud"`},
		{"bad request", "{", []string{"seal"}, "parse request"},
		{"empty request", "", []string{"open"}, "parse request"},
		{"bad mode", Request{}, []string{"seal", "--mode", "strict"}, `unknown mode "strict"`},
		{"missing psk", Request{}, []string{"seal", "--mode", "psk"}, "empty psk"},
		{"unexpected sender key", Request{SenderPublicKey: make([]byte, 32)}, []string{"open", "--mode", "1"}, "unexpected sender public key"},
		{"short public key", Request{PublicKey: []byte{1, 2, 3}}, []string{"seal"}, "recipient public key"},
		{"short private key", Request{PrivateKey: []byte{1, 2, 3}}, []string{"open"}, "recipient private key"},
		{"bad sender key", Request{SenderPrivateKey: []byte{1}}, []string{"seal", "--mode", "auth"}, "sender private key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadError(t *testing.T) {
	cmd := &command{cfg: &Config{Stdin: errorReader{}}}
	_, err := cmd.read()
	assert.ErrorContains(t, err, "read stdin")
}

func TestParseID(t *testing.T) {
	kem, err := parseID("kem", " X25519 ", kemNames, 16)
	require.NoError(t, err)
	assert.Equal(t, hpke.KEMX25519HKDFSHA256, kem)

	kem, err = parseID("kem", "32", kemNames, 16)
	require.NoError(t, err)
	assert.Equal(t, hpke.KEMX25519HKDFSHA256, kem)

	mode, err := parseMode("0x03")
	require.NoError(t, err)
	assert.Equal(t, hpke.ModeAuthPSK, mode)

	_, err = parseMode("256")
	assert.Error(t, err)

	_, err = parseID("aead", "0x10000", aeadNames, 16)
	assert.Error(t, err)
}

func TestResponse_Base64URLFields(t *testing.T) {
	data, err := json.Marshal(Response{Suite: "s", Enc: encoding.Base64URL{0xfb, 0xff}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"suite":"s","enc":"-_8"}`, string(data))
}
