package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	errx "github.com/line-dify-relay/server/internal/core/error"
)

// VerifySignature checks the X-Line-Signature header against the raw
// webhook body. LINE signs with HMAC-SHA256 over the exact payload bytes
// using the channel secret and sends the digest base64-encoded.
func VerifySignature(channelSecret string, body []byte, signature string) error {
	if signature == "" {
		return errx.ErrInvalidSignature
	}

	provided, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return errx.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)

	// hmac.Equal is constant-time.
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return errx.ErrInvalidSignature
	}
	return nil
}
