package cryptox

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// OTPDigits is the length of generated one-time codes.
const OTPDigits = otp.DigitsSix

// GenerateOTP derives a 6-digit one-time code from a freshly generated
// random secret. The secret is discarded; the code itself is stored and
// compared on verification, it is not a TOTP enrollment.
func GenerateOTP() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate otp secret: %w", err)
	}
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)

	code, err := hotp.GenerateCodeCustom(secret, 0, hotp.ValidateOpts{
		Digits:    OTPDigits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("cryptox: failed to derive otp code: %w", err)
	}
	return code, nil
}
