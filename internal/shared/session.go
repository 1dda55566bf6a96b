package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionState classifies a token at lookup time. The lifecycle is
// valid -> expiring -> invalid, with refreshing as the short transitional
// state of a rotated-out token that is still inside its grace window.
type SessionState string

const (
	SessionValid      SessionState = "valid"
	SessionExpiring   SessionState = "expiring"
	SessionRefreshing SessionState = "refreshing"
	SessionInvalid    SessionState = "invalid"
)

// Session is one resolved token. State is computed from the Redis record and
// its remaining TTL on every load; nothing ambient caches it.
type Session struct {
	ID        string       `json:"id"`
	UserID    int64        `json:"user_id"`
	State     SessionState `json:"state"`
	IssuedAt  time.Time    `json:"issued_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Active reports whether the session may authenticate a request. Expiring
// and refreshing tokens still pass; the state tells the client to rotate.
func (s *Session) Active() bool {
	if s == nil {
		return false
	}
	switch s.State {
	case SessionValid, SessionExpiring, SessionRefreshing:
		return true
	default:
		return false
	}
}

type sessionPayload struct {
	UserID     int64     `json:"user_id"`
	IssuedAt   time.Time `json:"issued_at"`
	Refreshing bool      `json:"refreshing,omitempty"`
	ReplacedBy string    `json:"replaced_by,omitempty"`
}

// SessionManager owns cookie-based sessions in Redis. Refresh rotates the
// token: the new ID gets a full TTL and the old record is kept for a short
// grace window in the refreshing state so in-flight requests do not 401.
type SessionManager struct {
	client        *redis.Client
	cookieName    string
	ttl           time.Duration
	refreshWindow time.Duration
	grace         time.Duration
	secure        bool
}

func NewSessionManager(client *redis.Client, cookieName string, ttl, refreshWindow, grace time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:        client,
		cookieName:    cookieName,
		ttl:           ttl,
		refreshWindow: refreshWindow,
		grace:         grace,
		secure:        secure,
	}
}

// Issue creates a fresh valid session for the user.
func (sm *SessionManager) Issue(ctx context.Context, userID int64) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		State:     SessionValid,
		IssuedAt:  now,
		ExpiresAt: now.Add(sm.ttl),
	}
	payload := sessionPayload{UserID: userID, IssuedAt: now}
	if err := sm.store(ctx, sess.ID, payload, sm.ttl); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load resolves a token to a session, computing its state. An unknown or
// expired token yields a session in the invalid state, not an error.
func (sm *SessionManager) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return &Session{State: SessionInvalid}, nil
	}

	pipe := sm.client.Pipeline()
	getCmd := pipe.Get(ctx, sm.key(id))
	ttlCmd := pipe.TTL(ctx, sm.key(id))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	data, err := getCmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &Session{ID: id, State: SessionInvalid}, nil
		}
		return nil, err
	}

	var payload sessionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	remaining := ttlCmd.Val()
	sess := &Session{
		ID:        id,
		UserID:    payload.UserID,
		IssuedAt:  payload.IssuedAt,
		ExpiresAt: time.Now().UTC().Add(remaining),
	}
	switch {
	case payload.Refreshing:
		sess.State = SessionRefreshing
	case remaining > 0 && remaining <= sm.refreshWindow:
		sess.State = SessionExpiring
	default:
		sess.State = SessionValid
	}
	return sess, nil
}

// Refresh rotates the token. The old record shrinks to the grace TTL and is
// marked refreshing; the returned session carries the replacement ID.
func (sm *SessionManager) Refresh(ctx context.Context, id string) (*Session, error) {
	current, err := sm.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Active() {
		return nil, ErrSessionInvalid
	}
	// A rotated-out token cannot rotate again.
	if current.State == SessionRefreshing {
		return nil, ErrSessionInvalid
	}

	next, err := sm.Issue(ctx, current.UserID)
	if err != nil {
		return nil, err
	}

	old := sessionPayload{
		UserID:     current.UserID,
		IssuedAt:   current.IssuedAt,
		Refreshing: true,
		ReplacedBy: next.ID,
	}
	if err := sm.store(ctx, id, old, sm.grace); err != nil {
		return nil, err
	}
	return next, nil
}

// Revoke deletes the token immediately.
func (sm *SessionManager) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return sm.client.Del(ctx, sm.key(id)).Err()
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// TokenFromRequest reads the session token from the cookie, falling back to
// an Authorization bearer header for non-browser clients.
func (sm *SessionManager) TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(sm.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// WriteCookie sets the session cookie for the given session.
func (sm *SessionManager) WriteCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  sess.ExpiresAt,
	})
}

// ClearCookie expires the session cookie.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (sm *SessionManager) store(ctx context.Context, id string, payload sessionPayload, ttl time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return sm.client.Set(ctx, sm.key(id), data, ttl).Err()
}

func (sm *SessionManager) key(id string) string {
	return "session:" + id
}
