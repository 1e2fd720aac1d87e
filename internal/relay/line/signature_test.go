package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	errx "github.com/line-dify-relay/server/internal/core/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_Valid(t *testing.T) {
	body := []byte(`{"events":[]}`)
	require.NoError(t, VerifySignature("secret", body, sign("secret", body)))
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	body := []byte(`{"events":[]}`)
	sig := sign("secret", body)

	err := VerifySignature("secret", []byte(`{"events":[{}]}`), sig)
	assert.ErrorIs(t, err, errx.ErrInvalidSignature)
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte(`{"events":[]}`)
	sig := sign("other-secret", body)

	err := VerifySignature("secret", body, sig)
	assert.ErrorIs(t, err, errx.ErrInvalidSignature)
}

func TestVerifySignature_MissingHeader(t *testing.T) {
	err := VerifySignature("secret", []byte("{}"), "")
	assert.ErrorIs(t, err, errx.ErrInvalidSignature)
}

func TestVerifySignature_NotBase64(t *testing.T) {
	err := VerifySignature("secret", []byte("{}"), "%%%not-base64%%%")
	assert.ErrorIs(t, err, errx.ErrInvalidSignature)
}
