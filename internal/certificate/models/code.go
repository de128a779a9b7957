package models

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	dErrors "cleargate/pkg/domain-errors"
)

// idPrefix opens every certificate ID; the issuance date is embedded after
// it.
const idPrefix = "MAU-CERT"

// suffixLength is the random tail of a certificate ID. Six characters over a
// 36-symbol alphabet make a same-day collision practically impossible, and
// the storage uniqueness constraint catches the rest.
const suffixLength = 6

// hashLength is the truncated keyed-digest length in hex characters.
const hashLength = 8

const suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewCertificateID mints "MAU-CERT-YYYYMMDD-XXXXXX" with a random uppercase
// alphanumeric suffix.
func NewCertificateID(now time.Time) (string, error) {
	buf := make([]byte, suffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("certificate id entropy: %w", err)
	}
	suffix := make([]byte, suffixLength)
	for i, b := range buf {
		suffix[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return fmt.Sprintf("%s-%s-%s", idPrefix, now.Format("20060102"), suffix), nil
}

// SecurityHash derives the forgery-resistance token: an HMAC-SHA256 over the
// student's internal ID and the certificate ID, keyed with the server
// secret, truncated to eight uppercase hex characters. Not derivable without
// the secret.
func SecurityHash(studentInternalID, certificateID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(studentInternalID + certificateID))
	sum := hex.EncodeToString(mac.Sum(nil))
	return strings.ToUpper(sum[:hashLength])
}

// ParseCode splits a public verification code into certificate ID and
// security hash. The last dash-separated segment is the hash; everything
// before it rejoins into the ID, since the ID itself contains dashes.
func ParseCode(code string) (certificateID, securityHash string, err error) {
	parts := strings.Split(code, "-")
	if len(parts) < 2 {
		return "", "", dErrors.New(dErrors.CodeValidation, "malformed certificate code")
	}
	securityHash = parts[len(parts)-1]
	certificateID = strings.Join(parts[:len(parts)-1], "-")
	if certificateID == "" || securityHash == "" {
		return "", "", dErrors.New(dErrors.CodeValidation, "malformed certificate code")
	}
	return certificateID, securityHash, nil
}
