package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignPayload_KnownVector(t *testing.T) {
	// RFC 4231 test case 2.
	got := SignPayload("Jefe", []byte("what do ya want for nothing?"))
	want := "164b7a7bfcf819e2e395fbe73b56e0a387bd64222e831fd610270cd7ea250554" +
		"9758bf75c05a994a6d034f65f8f0e6fdcaeab1a34d4a6b4b636e070a38bce737"
	assert.Equal(t, want, got)
}

func TestVerifyPayload_Accepts(t *testing.T) {
	payload := []byte(`{"event":"charge.success","data":{"amount":50000}}`)
	sig := SignPayload("sk_test", payload)
	require.NoError(t, VerifyPayload("sk_test", payload, sig))
}

func TestVerifyPayload_MissingSignature(t *testing.T) {
	require.ErrorIs(t, VerifyPayload("sk_test", []byte("{}"), ""), ErrMissingSignature)
	require.ErrorIs(t, VerifyPayload("sk_test", []byte("{}"), "  "), ErrMissingSignature)
}

func TestVerifyPayload_SingleByteFlips(t *testing.T) {
	payload := []byte(`{"event":"charge.success","data":{"reference":"ref-1"}}`)
	sig := SignPayload("sk_test", payload)

	for i := range payload {
		flipped := append([]byte(nil), payload...)
		flipped[i] ^= 0x01
		require.ErrorIs(t, VerifyPayload("sk_test", flipped, sig), ErrSignatureMismatch, "payload byte %d", i)
	}

	for i := range sig {
		flipped := []byte(sig)
		flipped[i] ^= 0x01
		require.ErrorIs(t, VerifyPayload("sk_test", payload, string(flipped)), ErrSignatureMismatch, "signature byte %d", i)
	}
}

func TestVerifyPayload_WrongSecretAndCase(t *testing.T) {
	payload := []byte(`{"a":1}`)
	sig := SignPayload("sk_test", payload)

	assert.ErrorIs(t, VerifyPayload("sk_other", payload, sig), ErrSignatureMismatch)
	assert.ErrorIs(t, VerifyPayload("sk_test", payload, strings.ToUpper(sig)), ErrSignatureMismatch)
}

func TestVerifyPayload_ReformattedBodyRejected(t *testing.T) {
	payload := []byte(`{"event":"charge.success"}`)
	sig := SignPayload("sk_test", payload)

	reformatted := []byte(`{"event": "charge.success"}`)
	assert.ErrorIs(t, VerifyPayload("sk_test", reformatted, sig), ErrSignatureMismatch)
}
