package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Verify checks that rawBody was signed by the payment provider.
//
// The header carries comma-separated key=value pairs: a unix timestamp under
// "t" and one or more hex digest candidates (PayMongo sends "te" for test
// mode and "li" for live mode). The expected digest is
// HMAC-SHA256(secret, "<t>.<rawBody>") and any matching candidate passes.
//
// rawBody must be the exact bytes received on the wire; re-serializing a
// parsed payload produces different bytes and can never verify.
func Verify(rawBody []byte, signatureHeader, secret string) bool {
	if secret == "" || signatureHeader == "" {
		return false
	}

	var timestamp string
	var candidates []string
	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || value == "" {
			continue
		}
		if key == "t" {
			timestamp = value
		} else {
			candidates = append(candidates, value)
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		digest, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(digest, expected) {
			return true
		}
	}
	return false
}
