package api

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// SessionCookie is the name of the signed session cookie.
const SessionCookie = "hackreg_session"

const defaultSessionAge = 30 * 24 * time.Hour

// Sessions issues and verifies signed session cookies carrying a user id.
type Sessions struct {
	codec  *securecookie.SecureCookie
	secure bool
	maxAge time.Duration
}

// NewSessions derives the signing key from secret. secure marks cookies
// for HTTPS only.
func NewSessions(secret string, secure bool) *Sessions {
	key := sha256.Sum256([]byte(secret))
	codec := securecookie.New(key[:], nil)
	codec.MaxAge(int(defaultSessionAge.Seconds()))
	return &Sessions{codec: codec, secure: secure, maxAge: defaultSessionAge}
}

// Issue sets a session cookie for userID.
func (s *Sessions) Issue(w http.ResponseWriter, userID string) error {
	value, err := s.codec.Encode(SessionCookie, map[string]string{"uid": userID})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// UserID returns the user id of a valid session cookie on r.
func (s *Sessions) UserID(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	var value map[string]string
	if err := s.codec.Decode(SessionCookie, c.Value, &value); err != nil {
		return "", false
	}
	uid := value["uid"]
	return uid, uid != ""
}
