package relay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// SignatureHeader carries the SalesPro webhook signature.
const SignatureHeader = "X-Salespro-Signature"

// ErrBadSignature indicates a missing or mismatched webhook signature.
var ErrBadSignature = errors.New("webhook signature mismatch")

// SignatureVerifier checks the SalesPro webhook signature: a hex-encoded
// HMAC-SHA256 of the raw request body under the shared secret. With no
// secret configured the endpoint is unauthenticated and every delivery
// is accepted.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier returns a verifier for the given shared secret.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Enabled reports whether deliveries must be signed.
func (v *SignatureVerifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// Verify checks the signature of a raw body.
func (v *SignatureVerifier) Verify(body []byte, signature string) error {
	if !v.Enabled() {
		return nil
	}
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if signature == "" {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, v.secret)
	_, _ = mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrBadSignature
	}
	return nil
}
