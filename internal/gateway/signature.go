package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// signatureWindow is the maximum accepted clock skew for signed webhooks.
const signatureWindow = 5 * time.Minute

// VerifySlackSignature checks the v0 HMAC-SHA256 request signature over the
// raw body. Comparison is constant time; stale timestamps are rejected to
// block replays.
func VerifySlackSignature(signingSecret, timestamp, signature string, body []byte) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("bad timestamp: %w", err)
	}
	age := time.Since(time.Unix(ts, 0))
	if age > signatureWindow || age < -signatureWindow {
		return fmt.Errorf("timestamp outside window: %s", age)
	}

	mac := hmac.New(sha256.New, []byte(signingSecret))
	fmt.Fprintf(mac, "v0:%s:", timestamp)
	mac.Write(body)
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
