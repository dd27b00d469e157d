// Package auth verifies the identity credential a client supplies on
// connect. Credential issuance belongs to the CRUD service; both sides
// share the configured secret.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yellcord/realtime/internal/domain"
)

// Verifier checks HMAC-signed connection tokens of the form
// "<userID>.<expiryUnix>.<hex signature>".
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Sign issues a token for the user, valid for ttl. Exposed for the CRUD
// collaborator and tests.
func (v *Verifier) Sign(uid domain.UserID, ttl time.Duration) string {
	exp := strconv.FormatInt(time.Now().Add(ttl).Unix(), 10)
	return fmt.Sprintf("%s.%s.%s", uid, exp, v.signature(string(uid), exp))
}

// Verify returns the user identity carried by a valid, unexpired token.
func (v *Verifier) Verify(token string) (domain.UserID, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" {
		return "", domain.ErrUnauthorized
	}
	uid, exp, sig := parts[0], parts[1], parts[2]
	if !hmac.Equal([]byte(sig), []byte(v.signature(uid, exp))) {
		return "", domain.ErrUnauthorized
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil || time.Now().Unix() > expUnix {
		return "", domain.ErrUnauthorized
	}
	return domain.UserID(uid), nil
}

func (v *Verifier) signature(uid, exp string) string {
	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%s.%s", uid, exp)
	return hex.EncodeToString(mac.Sum(nil))
}
