package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignKnownVector(t *testing.T) {
	body := []byte(`{"eventType":"chat.conversation.activity"}`)
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(body)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, Sign(body, "secret"))
}

func TestVerifyRoundTrip(t *testing.T) {
	bodies := [][]byte{
		[]byte(`{"eventType":"chat.conversation.activity","object":{"conversationId":"c1","body":"Hi"}}`),
		[]byte(""),
		[]byte("not json at all"),
		{0x00, 0xff, 0x10, 0x7f},
	}
	secrets := []string{"s", "a-much-longer-shared-webhook-secret", "ünïcødé"}

	for _, body := range bodies {
		for _, secret := range secrets {
			assert.True(t, Verify(body, Sign(body, secret), secret))
		}
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	body := []byte(`{"eventType":"chat.conversation.activity","object":{"conversationId":"c1"}}`)
	sig := Sign(body, "secret")

	for i := range body {
		tampered := make([]byte, len(body))
		copy(tampered, body)
		tampered[i] ^= 0x01
		assert.False(t, Verify(tampered, sig, "secret"), "flipped byte %d", i)
	}
}

func TestVerifyWhitespaceChangesDigest(t *testing.T) {
	// Re-serialized JSON differs from the received bytes and must not verify.
	received := []byte(`{"eventType": "chat.conversation.activity"}`)
	reserialized := []byte(`{"eventType":"chat.conversation.activity"}`)

	sig := Sign(received, "secret")
	assert.True(t, Verify(received, sig, "secret"))
	assert.False(t, Verify(reserialized, sig, "secret"))
}

func TestVerifyWrongSecret(t *testing.T) {
	body := []byte("payload")
	assert.False(t, Verify(body, Sign(body, "right"), "wrong"))
}

func TestVerifyEmptySecretBypasses(t *testing.T) {
	body := []byte("anything")
	for _, sig := range []string{"", "garbage", "%%%not-base64%%%", Sign(body, "other")} {
		assert.True(t, Verify(body, sig, ""), "signature %q", sig)
	}
}

func TestVerifyMalformedSignature(t *testing.T) {
	body := []byte("payload")
	tests := []struct {
		name string
		sig  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"not base64", "%%%not-base64%%%"},
		{"truncated", Sign(body, "secret")[:10]},
		{"hex digest", "5d41402abc4b2a76b9719d911017c592"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Verify(body, tt.sig, "secret"))
		})
	}
}

func TestVerifyToleratesSurroundingWhitespace(t *testing.T) {
	body := []byte("payload")
	assert.True(t, Verify(body, " "+Sign(body, "secret")+"\n", "secret"))
}

func TestVerifier(t *testing.T) {
	body := []byte(`{"eventType":"deal.updated"}`)

	v := NewVerifier("secret")
	require.True(t, v.Enabled())
	assert.True(t, v.Verify(body, Sign(body, "secret")))
	assert.False(t, v.Verify(body, "bogus"))

	open := NewVerifier("")
	assert.False(t, open.Enabled())
	assert.True(t, open.Verify(body, "bogus"))
}
