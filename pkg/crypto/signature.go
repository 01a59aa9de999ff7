package crypto

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"strings"
)

// PaystackSignatureHeader carries hex(HMAC-SHA512(secret, raw body)).
const PaystackSignatureHeader = "X-Paystack-Signature"

var (
	ErrMissingSignature  = errors.New("missing webhook signature")
	ErrSignatureMismatch = errors.New("webhook signature mismatch")
)

// SignPayload returns the lowercase hex HMAC-SHA512 of payload keyed by secret.
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayload checks signature against the exact payload bytes. The
// comparison is constant time; no case folding or trimming is applied.
func VerifyPayload(secret string, payload []byte, signature string) error {
	if strings.TrimSpace(signature) == "" {
		return ErrMissingSignature
	}
	expected := SignPayload(secret, payload)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}
