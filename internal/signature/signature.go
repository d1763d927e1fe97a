// Package signature verifies that webhook payloads were produced by the
// conversation platform. The platform signs the raw request body with
// HMAC-SHA256 keyed by the shared webhook secret and sends the base64 digest
// in the X-HubSpot-Signature header.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Header is the request header carrying the webhook signature.
const Header = "X-HubSpot-Signature"

// Sign returns the base64-encoded HMAC-SHA256 of body keyed by secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret.
//
// An empty secret disables verification and every payload is accepted. This
// permissive mode exists for local and test deployments; production must
// configure a secret. Any malformed or missing signature is treated as
// unverified.
func Verify(body []byte, signature, secret string) bool {
	if secret == "" {
		return true
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Verifier holds the shared secret for the lifetime of the process.
type Verifier struct {
	secret string
}

// NewVerifier creates a verifier for the given secret. An empty secret
// produces a permissive verifier.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Enabled reports whether signatures are actually checked.
func (v *Verifier) Enabled() bool {
	return v.secret != ""
}

// Verify checks the signature header value against the raw body.
func (v *Verifier) Verify(body []byte, signature string) bool {
	return Verify(body, signature, v.secret)
}
