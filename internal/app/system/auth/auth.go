// Package auth is the identity boundary in front of the workflows.
//
// A signed session cookie (gorilla/sessions) carries the caller's email.
// Handlers ask ActingEmail for the identity to pass into a workflow; the
// workflows themselves never look at cookies.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/clubsphere/internal/app/system/apperr"
	"github.com/dalemusser/clubsphere/internal/app/system/inputval"
	"github.com/dalemusser/clubsphere/internal/app/system/jsonresp"
	"github.com/dalemusser/clubsphere/internal/domain/models"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	emailKey = "user_email"
	nameKey  = "user_name"
)

// SessionUser is the signed-in caller, injected into the request context.
type SessionUser struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// IsAdmin reports whether the user holds the admin role.
func (u *SessionUser) IsAdmin() bool {
	return u != nil && u.Role == models.RoleAdmin
}

// UserFetcher loads the current record for a session email so that role
// changes take effect on the next request. It returns (nil, nil) when the
// user no longer exists.
type UserFetcher interface {
	FetchUser(ctx context.Context, email string) (*SessionUser, error)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user, if any.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects u into the request context, bypassing the cookie.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// SessionManager owns the cookie store and the identity policy.
type SessionManager struct {
	store        *sessions.CookieStore
	name         string
	trustRequest bool
	fetcher      UserFetcher
	log          *zap.Logger
}

// NewSessionManager builds a cookie-backed session manager. In production
// (secure=true) cookies are Secure with SameSite=None; in dev they are Lax.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, errors.New("session key is empty; provide 32+ random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		return nil, errors.New("session name is empty")
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetUserFetcher installs the lookup used to refresh session users.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// SetTrustRequestIdentity controls whether a caller without a session may
// act as the email it supplies.
func (sm *SessionManager) SetTrustRequestIdentity(trust bool) { sm.trustRequest = trust }

// LoadSessionUser injects the session user into the request context.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		email, _ := sess.Values[emailKey].(string)
		if email == "" {
			next.ServeHTTP(w, r)
			return
		}

		u := &SessionUser{Email: email, Role: models.RoleMember}
		u.Name, _ = sess.Values[nameKey].(string)

		if sm.fetcher != nil {
			fresh, err := sm.fetcher.FetchUser(r.Context(), email)
			switch {
			case err != nil:
				sm.log.Warn("session user refresh failed", zap.String("email", email), zap.Error(err))
			case fresh == nil:
				next.ServeHTTP(w, r)
				return
			default:
				u = fresh
			}
		}
		next.ServeHTTP(w, WithTestUser(r, u))
	})
}

// SignIn stores u's identity in the session cookie.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[emailKey] = u.Email
	sess.Values[nameKey] = u.Name
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SignOut clears the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// ActingEmail resolves the identity a request acts as.
//
//   - With a session, an empty supplied email means the session user. A
//     different supplied email is only allowed for admins.
//   - Without a session, the supplied email is accepted only when the
//     manager trusts request identities.
func (sm *SessionManager) ActingEmail(r *http.Request, field, supplied string) (string, error) {
	supplied = strings.ToLower(strings.TrimSpace(supplied))

	if u, ok := CurrentUser(r); ok {
		if supplied == "" || supplied == u.Email {
			return u.Email, nil
		}
		if !u.IsAdmin() {
			return "", apperr.Forbidden("cannot act on behalf of another user")
		}
		return inputval.Email(field, supplied)
	}

	if !sm.trustRequest {
		return "", apperr.Unauthorized("sign in required")
	}
	return inputval.Email(field, supplied)
}

// RequireRole allows only signed-in users holding one of the roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				jsonresp.Fail(w, http.StatusUnauthorized, "sign in required")
				return
			}
			if _, has := allowed[strings.ToLower(u.Role)]; !has {
				jsonresp.Fail(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Acting is ActingEmail plus the caller's role when it is already known from
// the session. role is empty when the email came from the request, in which
// case callers look it up.
func (sm *SessionManager) Acting(r *http.Request, field, supplied string) (email, role string, err error) {
	email, err = sm.ActingEmail(r, field, supplied)
	if err != nil {
		return "", "", err
	}
	if u, ok := CurrentUser(r); ok && u.Email == email {
		role = u.Role
	}
	return email, role, nil
}
