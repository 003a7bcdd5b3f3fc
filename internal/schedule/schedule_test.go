package schedule

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultsandbox/hpke-go/internal/kdf"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

const info = "4f6465206f6e2061204772656369616e2055726e"

func TestSuiteID(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "48504b45002000010001", hex.EncodeToString(SuiteID(0x0020, 0x0001, 0x0001)))
	assert.Equal(t, "48504b4500120003ffff", hex.EncodeToString(SuiteID(0x0012, 0x0003, 0xffff)))
	assert.Len(t, SuiteID(0x0010, 0x0001, 0xffff), 10)
}

// RFC 9180 A.1.1: DHKEM(X25519, HKDF-SHA256), HKDF-SHA256, AES-128-GCM, Base.
func TestDerive_Base(t *testing.T) {
	t.Parallel()

	p, err := Derive(kdf.SHA256, SuiteID(0x0020, 0x0001, 0x0001), Input{
		Mode:         ModeBase,
		SharedSecret: mustHex(t, "fe0e18c9f024ce43799ae393c7e8fe8fce9d218875e8227b0187c04e7d2ea1fc"),
		Info:         mustHex(t, info),
	}, 16, 12)
	require.NoError(t, err)

	assert.Equal(t, "00725611c9d98c07c03f60095cd32d400d8347d45ed67097bbad50fc56da742d07cb6cffde367bb0565ba28bb02c90744a20f5ef37f30523526106f637abb05449", hex.EncodeToString(p.Context))
	assert.Equal(t, "12fff91991e93b48de37e7daddb52981084bd8aa64289c3788471d9a9712f397", hex.EncodeToString(p.Secret))
	assert.Equal(t, "4531685d41d65f03dc48f6b8302c05b0", hex.EncodeToString(p.Key))
	assert.Equal(t, "56d890e5accaaf011cff4b7d", hex.EncodeToString(p.BaseNonce))
	assert.Equal(t, "45ff1c2e220db587171952c0592d5f5ebe103f1561a2614e38f2ffd47e99e3f8", hex.EncodeToString(p.ExporterSecret))

	p.Zero()
	assert.Equal(t, make([]byte, 16), p.Key)
	assert.Equal(t, make([]byte, 32), p.ExporterSecret)
	assert.NotEqual(t, make([]byte, len(p.Context)), p.Context)
}

// RFC 9180 A.7.4: DHKEM(X25519, HKDF-SHA256), HKDF-SHA256, Export-Only, AuthPSK.
func TestDerive_AuthPSKExportOnly(t *testing.T) {
	t.Parallel()

	p, err := Derive(kdf.SHA256, SuiteID(0x0020, 0x0001, 0xffff), Input{
		Mode:         ModeAuthPSK,
		SharedSecret: mustHex(t, "d69246bcd767e579b1eec80956d7e7dfbd2902dad920556f0de69bd54054a2d1"),
		Info:         mustHex(t, info),
		PSK:          mustHex(t, "0247fd33b913760fa1fa51e1892d9f307fbe65eb171e8132c2af18555a738b82"),
		PSKID:        mustHex(t, "456e6e796e20447572696e206172616e204d6f726961"),
	}, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, "03446fb1fe2632a0a338f0a85ed1f3a0ac475bdea2cd72f8c713b3a46ee737379a3f4c22aa6d9a0424c2b4292fdf43b8257df93c2f6adbf6ddc9c64fee26bdd292", hex.EncodeToString(p.Context))
	assert.Equal(t, "c15c5bec374f2087c241d3533c6ec48e1c60a21dd00085619b2ffdd84a7918c3", hex.EncodeToString(p.Secret))
	assert.Empty(t, p.Key)
	assert.Empty(t, p.BaseNonce)
	assert.Equal(t, "695b1faa479c0e0518b6414c3b46e8ef5caea04c0a192246843765ae6a8a78e0", hex.EncodeToString(p.ExporterSecret))
}

func TestDerive_PSKInputs(t *testing.T) {
	t.Parallel()

	psk := []byte("0123456789abcdef0123456789abcdef")
	pskID := []byte("id")
	ss := make([]byte, 32)

	tests := []struct {
		name    string
		in      Input
		wantErr bool
	}{
		{"base", Input{Mode: ModeBase, SharedSecret: ss}, false},
		{"auth", Input{Mode: ModeAuth, SharedSecret: ss}, false},
		{"psk", Input{Mode: ModePSK, SharedSecret: ss, PSK: psk, PSKID: pskID}, false},
		{"auth psk", Input{Mode: ModeAuthPSK, SharedSecret: ss, PSK: psk, PSKID: pskID}, false},
		{"base with psk", Input{Mode: ModeBase, SharedSecret: ss, PSK: psk, PSKID: pskID}, true},
		{"auth with psk", Input{Mode: ModeAuth, SharedSecret: ss, PSK: psk, PSKID: pskID}, true},
		{"psk without psk", Input{Mode: ModePSK, SharedSecret: ss}, true},
		{"psk without id", Input{Mode: ModePSK, SharedSecret: ss, PSK: psk}, true},
		{"id without psk", Input{Mode: ModeAuthPSK, SharedSecret: ss, PSKID: pskID}, true},
		{"unknown mode", Input{Mode: 4, SharedSecret: ss}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Derive(kdf.SHA256, SuiteID(0x0020, 0x0001, 0x0001), tt.in, 16, 12)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInconsistentPSK)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDerive_ModeSeparation(t *testing.T) {
	t.Parallel()
	suiteID := SuiteID(0x0020, 0x0001, 0x0001)
	ss := make([]byte, 32)

	base, err := Derive(kdf.SHA256, suiteID, Input{Mode: ModeBase, SharedSecret: ss}, 16, 12)
	require.NoError(t, err)
	auth, err := Derive(kdf.SHA256, suiteID, Input{Mode: ModeAuth, SharedSecret: ss}, 16, 12)
	require.NoError(t, err)

	assert.Equal(t, base.Context[1:], auth.Context[1:])
	assert.NotEqual(t, base.Key, auth.Key)
	assert.NotEqual(t, base.BaseNonce, auth.BaseNonce)
}
