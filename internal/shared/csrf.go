package shared

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// CSRFHeader is the request header carrying the CSRF token.
const CSRFHeader = "X-CSRF-Token"

const csrfNonceLen = 8

// CSRFManager issues and verifies stateless CSRF tokens bound to a session
// ID. A token is nonce || HMAC(secret, sessionID|nonce), so verification
// needs no storage and rotation of the session invalidates old tokens.
type CSRFManager struct {
	secret []byte
}

// NewCSRFManager returns a CSRFManager using the provided secret key.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// IssueToken generates a CSRF token for the session.
func (m *CSRFManager) IssueToken(sessionID string) string {
	nonce := make([]byte, csrfNonceLen)
	_, _ = rand.Read(nonce)
	return base64.RawURLEncoding.EncodeToString(append(nonce, m.sign(sessionID, nonce)...))
}

// VerifyToken checks that the token was issued for this session.
func (m *CSRFManager) VerifyToken(sessionID, token string) error {
	if token == "" {
		return ErrCSRFTokenMissing
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) <= csrfNonceLen {
		return ErrCSRFTokenMismatch
	}
	nonce, mac := raw[:csrfNonceLen], raw[csrfNonceLen:]
	if !hmac.Equal(mac, m.sign(sessionID, nonce)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) sign(sessionID string, nonce []byte) []byte {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(sessionID))
	_, _ = mac.Write([]byte{'|'})
	_, _ = mac.Write(nonce)
	return mac.Sum(nil)
}
