package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw request body,
// keyed with the server key shared with the gateway.
const SignatureHeader = "X-Callback-Signature"

var (
	ErrMissingServerKey = errors.New("payment server key is not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Verifier checks webhook authenticity before any state is touched.
type Verifier struct {
	serverKey []byte
}

func NewVerifier(serverKey string) *Verifier {
	return &Verifier{serverKey: []byte(serverKey)}
}

// Verify compares the provided signature against HMAC-SHA512(body, key)
// in constant time.
func (v *Verifier) Verify(body []byte, signature string) error {
	if len(v.serverKey) == 0 {
		return ErrMissingServerKey
	}

	mac := hmac.New(sha512.New, v.serverKey)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}

// Sign is the counterpart of Verify, used by tests and local tooling.
func (v *Verifier) Sign(body []byte) string {
	mac := hmac.New(sha512.New, v.serverKey)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
