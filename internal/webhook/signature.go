package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrSignatureExpired = errors.New("webhook signature timestamp outside tolerance")
)

// Sign returns the signature header for a payload sent at ts, in the form
// "t=<unix seconds>,sha256=<hex>". The MAC covers "<unix seconds>.<payload>"
// so a captured body cannot be replayed under a new timestamp.
func Sign(secret string, ts time.Time, payload []byte) string {
	unix := strconv.FormatInt(ts.Unix(), 10)
	return "t=" + unix + ",sha256=" + mac(secret, unix, payload)
}

// Verify checks a header produced by Sign. A positive tolerance also
// rejects timestamps further than tolerance from now.
func Verify(secret string, payload []byte, header string, tolerance time.Duration, now time.Time) error {
	unix, sig, ok := parseHeader(header)
	if !ok {
		return ErrInvalidSignature
	}
	if !hmac.Equal([]byte(sig), []byte(mac(secret, unix, payload))) {
		return ErrInvalidSignature
	}

	if tolerance > 0 {
		sec, err := strconv.ParseInt(unix, 10, 64)
		if err != nil {
			return ErrInvalidSignature
		}
		age := now.Sub(time.Unix(sec, 0))
		if age > tolerance || age < -tolerance {
			return ErrSignatureExpired
		}
	}
	return nil
}

func mac(secret, unix string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(unix))
	h.Write([]byte{'.'})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func parseHeader(header string) (unix, sig string, ok bool) {
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return "", "", false
		}
		switch k {
		case "t":
			unix = v
		case "sha256":
			sig = v
		}
	}
	return unix, sig, unix != "" && sig != ""
}
