package relay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	v := NewSignatureVerifier("topsecret")
	body := `{"customer":{}}`
	if err := v.Verify([]byte(body), sign("topsecret", body)); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifyAcceptsPrefixedSignature(t *testing.T) {
	v := NewSignatureVerifier("topsecret")
	body := `{"customer":{}}`
	if err := v.Verify([]byte(body), "sha256="+sign("topsecret", body)); err != nil {
		t.Fatalf("expected prefixed signature to verify, got %v", err)
	}
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	v := NewSignatureVerifier("topsecret")
	if err := v.Verify([]byte("body"), sign("othersecret", "body")); err != ErrBadSignature {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
	if err := v.Verify([]byte("body"), ""); err != ErrBadSignature {
		t.Fatalf("expected ErrBadSignature for missing header, got %v", err)
	}
}

func TestVerifyDisabledWithoutSecret(t *testing.T) {
	v := NewSignatureVerifier("")
	if v.Enabled() {
		t.Fatal("expected verifier to be disabled without a secret")
	}
	if err := v.Verify([]byte("body"), "garbage"); err != nil {
		t.Fatalf("disabled verifier must accept everything, got %v", err)
	}
}
