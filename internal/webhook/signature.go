package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// SignatureHeader is the header Stripe sends the signature in.
const SignatureHeader = "Stripe-Signature"

const (
	timestampKey = "t"
	signatureKey = "v1"
)

// Verifier checks Stripe-Signature headers against a single endpoint secret.
// It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: append([]byte(nil), secret...)}
}

// Verify reports whether header carries a valid signature of payload.
// An empty header never verifies.
func (v *Verifier) Verify(header string, payload []byte) bool {
	return VerifySignature(header, payload, v.secret)
}

// VerifySignature reports whether header is a valid Stripe-Signature for
// payload under secret. Only the first t and the first v1 entries are used.
func VerifySignature(header string, payload, secret []byte) bool {
	if header == "" {
		return false
	}

	timestamp, signatureHex, ok := parseSignatureHeader(header)
	if !ok {
		return false
	}

	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}

	expected := computeDigest(secret, timestamp, payload)
	if len(signature) != len(expected) {
		return false
	}

	return subtle.ConstantTimeCompare(expected, signature) == 1
}

// ComputeSignature returns the lowercase hex v1 signature for payload.
func ComputeSignature(secret []byte, timestamp string, payload []byte) string {
	return hex.EncodeToString(computeDigest(secret, timestamp, payload))
}

// BuildSignatureHeader returns a "t=...,v1=..." header value for payload.
func BuildSignatureHeader(secret []byte, timestamp string, payload []byte) string {
	return timestampKey + "=" + timestamp + "," + signatureKey + "=" + ComputeSignature(secret, timestamp, payload)
}

func computeDigest(secret []byte, timestamp string, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return mac.Sum(nil)
}

// parseSignatureHeader extracts the first t and the first v1 value.
// Later occurrences are rotation signatures and are ignored.
func parseSignatureHeader(header string) (timestamp, signature string, ok bool) {
	var haveTimestamp, haveSignature bool

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found || key == "" {
			continue
		}

		switch key {
		case timestampKey:
			if !haveTimestamp {
				timestamp, haveTimestamp = value, true
			}
		case signatureKey:
			if !haveSignature {
				signature, haveSignature = value, true
			}
		}
	}

	return timestamp, signature, haveTimestamp && haveSignature
}
