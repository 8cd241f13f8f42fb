package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "app-secret"
	body := []byte(`{"object":"whatsapp_business_account","entry":[]}`)

	if !VerifySignature(secret, body, sign(secret, body)) {
		t.Fatal("valid signature rejected")
	}
	if VerifySignature(secret, body, sign("other-secret", body)) {
		t.Fatal("signature with wrong secret accepted")
	}
	// Verification is over the raw bytes: any mutation must fail.
	mutated := append([]byte(nil), body...)
	mutated[0] = ' '
	if VerifySignature(secret, mutated, sign(secret, body)) {
		t.Fatal("signature over different body accepted")
	}
}

func TestVerifySignatureMalformedHeader(t *testing.T) {
	body := []byte("payload")
	cases := []string{
		"",
		"sha256=",
		"sha1=deadbeef",
		"deadbeef",
	}
	for _, header := range cases {
		if VerifySignature("secret", body, header) {
			t.Fatalf("header %q accepted", header)
		}
	}
}

func TestVerifySignatureNoSecret(t *testing.T) {
	body := []byte("payload")
	if VerifySignature("", body, sign("", body)) {
		t.Fatal("empty secret must never verify")
	}
}
