package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	apperrors "github.com/modaversa/storefront/pkg/errors"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the request body.
const SignatureHeader = "X-Webhook-Signature"

// Verifier checks webhook payload signatures against a shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Sign returns the hex-encoded HMAC-SHA256 of payload.
func (v *Verifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the given signature against the payload in constant time.
// An optional "sha256=" prefix on the signature is accepted.
func (v *Verifier) Verify(payload []byte, signature string) error {
	signature = strings.TrimPrefix(signature, "sha256=")

	got, err := hex.DecodeString(signature)
	if err != nil {
		return apperrors.Unauthorized("malformed webhook signature")
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	want := mac.Sum(nil)

	if !hmac.Equal(got, want) {
		return apperrors.Unauthorized("invalid webhook signature")
	}
	return nil
}
