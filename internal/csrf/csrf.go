// Package csrf guards state-changing requests with a per-session token.
//
// Validation is an explicit transition table rather than conditional
// fallbacks, and it fails closed: a state-changing request without a session,
// without a session token, or with a mismatched token is rejected.
package csrf

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"fintrack/internal/session"
)

const (
	// HeaderName is the request header carrying the client's token.
	HeaderName = "X-CSRF-Token"
	// BodyField is the fallback body field carrying the client's token.
	BodyField = "_csrf"
	// CookieName is the session cookie the token is bound to.
	CookieName = "fintrack_session"

	tokenLength  = 32
	maxBodyPeek  = 1 << 20 // 1MB
	jsonMimeType = "application/json"
)

// State is the outcome of matching a request against its session.
type State int

const (
	NoSession State = iota
	SessionWithoutToken
	TokenMissing
	TokenMismatch
	TokenMatch
)

func (s State) String() string {
	switch s {
	case NoSession:
		return "no session"
	case SessionWithoutToken:
		return "session has no token"
	case TokenMissing:
		return "request token missing"
	case TokenMismatch:
		return "token mismatch"
	case TokenMatch:
		return "token match"
	default:
		return "unknown"
	}
}

// Allowed reports whether a state-changing request may proceed.
// Only a full token match passes; every other state is rejected.
func (s State) Allowed() bool {
	return s == TokenMatch
}

// Evaluate classifies a request given the session lookup result, the token
// stored on the session, and the token submitted with the request.
func Evaluate(sessionFound bool, sessionToken, requestToken string) State {
	switch {
	case !sessionFound:
		return NoSession
	case sessionToken == "":
		return SessionWithoutToken
	case requestToken == "":
		return TokenMissing
	case subtle.ConstantTimeCompare([]byte(sessionToken), []byte(requestToken)) != 1:
		return TokenMismatch
	default:
		return TokenMatch
	}
}

// Guard issues per-session tokens and enforces them on state-changing
// requests.
type Guard struct {
	sessions     session.Store
	cookieSecure bool
}

func NewGuard(sessions session.Store, cookieSecure bool) *Guard {
	return &Guard{sessions: sessions, cookieSecure: cookieSecure}
}

// IssueToken ensures the request has a session, generates a fresh token,
// stores it on the session and sets the session cookie. The token is returned
// for echoing to the client.
func (g *Guard) IssueToken(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := g.requestSession(ctx, r)
	if err != nil {
		sess, err = g.sessions.Create(ctx)
		if err != nil {
			return "", err
		}
		g.setSessionCookie(w, sess)
	}

	tok, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := g.sessions.SetCSRFToken(ctx, sess.ID, tok); err != nil {
		return "", err
	}
	return tok, nil
}

// Protect rejects state-changing requests whose submitted token does not
// match the session's stored token. Safe methods always pass.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		state := g.classify(r)
		if !state.Allowed() {
			slog.WarnContext(r.Context(), "CSRF check rejected request",
				"state", state.String(),
				"method", r.Method,
				"path", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"Invalid CSRF token. Please refresh the page and try again."}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *Guard) classify(r *http.Request) State {
	sess, err := g.requestSession(r.Context(), r)
	if err != nil {
		return Evaluate(false, "", "")
	}
	return Evaluate(true, sess.CSRFToken, extractToken(r))
}

func (g *Guard) requestSession(ctx context.Context, r *http.Request) (*session.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, session.ErrSessionNotFound
	}
	return g.sessions.Get(ctx, cookie.Value)
}

func (g *Guard) setSessionCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		Secure:   g.cookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// extractToken reads the client token from the header, falling back to the
// _csrf body field. The body is restored so handlers can still read it.
func extractToken(r *http.Request) string {
	if tok := r.Header.Get(HeaderName); tok != "" {
		return tok
	}
	if r.Body == nil {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyPeek))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, jsonMimeType) || (len(body) > 0 && body[0] == '{') {
		var payload map[string]interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			return ""
		}
		if tok, ok := payload[BodyField].(string); ok {
			return tok
		}
		return ""
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return ""
	}
	return values.Get(BodyField)
}

func generateToken() (string, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
