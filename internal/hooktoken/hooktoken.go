// Package hooktoken signs and verifies the instance tokens embedded in webhook URLs.
//
// A token has the form "<instanceID>.<hex(HMAC-SHA256(secret, instanceID))>". Tokens carry no
// expiry; revoking the instance is the only way to stop a token from being accepted.
package hooktoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/and161185/notyfai/internal/errs"
)

// ErrNoSecret is returned by New when no signing secret is configured.
var ErrNoSecret = errors.New("hooktoken: secret is required")

const sep = "."

// Signer produces and verifies signed instance tokens.
type Signer struct {
	secret []byte
}

// New returns a Signer for the given secret. An empty secret is rejected.
func New(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	return &Signer{secret: append([]byte(nil), secret...)}, nil
}

// Sign returns the token for instanceID. The result is deterministic for a fixed secret.
func (s *Signer) Sign(instanceID string) string {
	return instanceID + sep + hex.EncodeToString(s.mac(instanceID))
}

// Verify checks token and returns the embedded instance ID.
// Only the last "." separates the ID from the signature.
func (s *Signer) Verify(token string) (string, error) {
	dot := strings.LastIndex(token, sep)
	if dot < 0 {
		return "", errs.ErrInvalidToken
	}
	instanceID, sig := token[:dot], token[dot+1:]

	got, err := hex.DecodeString(sig)
	if err != nil {
		return "", errs.ErrInvalidToken
	}
	// hex decoding is case-insensitive; the issued form is lowercase only.
	if sig != strings.ToLower(sig) {
		return "", errs.ErrInvalidToken
	}
	if !hmac.Equal(got, s.mac(instanceID)) {
		return "", errs.ErrInvalidToken
	}
	return instanceID, nil
}

func (s *Signer) mac(instanceID string) []byte {
	m := hmac.New(sha256.New, s.secret)
	m.Write([]byte(instanceID))
	return m.Sum(nil)
}
