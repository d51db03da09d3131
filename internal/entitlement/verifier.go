package entitlement

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	errors "github.com/courseloop/courseloop/internal"
)

// Verifier authenticates gateway payment callbacks. Both gateway families
// sign the same way: HMAC-SHA256 over "<orderID>|<paymentID>" keyed with the
// gateway secret, hex encoded.
type Verifier struct {
	secrets map[string]string // gateway name -> signing secret
}

func NewVerifier(secrets map[string]string) *Verifier {
	return &Verifier{secrets: secrets}
}

// Verify recomputes the expected signature and compares in constant time.
// Missing fields are rejected before any crypto work; an unknown gateway has
// an empty secret and fails the comparison like any forged signature.
func (v *Verifier) Verify(gateway, orderID, paymentID, signature string) error {
	if orderID == "" || paymentID == "" || signature == "" {
		return errors.ErrMissingVerificationData
	}

	mac := hmac.New(sha256.New, []byte(v.secrets[gateway]))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return errors.ErrInvalidSignature
	}
	return nil
}
