package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/storefront/storefront-api/internal/core/domain"
)

const (
	DefaultCookieName = "storefront.sid"

	sessionIDKey = "session_id"
)

var errMissingSessionID = errors.New("session token carries no sid")

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionCookie carries the session id between requests as an HS256-signed
// token. The signature only keeps forged ids away from the session store;
// the store decides whether a session is live.
type SessionCookie struct {
	name   string
	secret []byte
	secure bool
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionCookie(name, secret string, secure bool, ttl time.Duration) *SessionCookie {
	if name == "" {
		name = DefaultCookieName
	}
	return &SessionCookie{name: name, secret: []byte(secret), secure: secure, ttl: ttl, now: time.Now}
}

// Name is the cookie name.
func (sc *SessionCookie) Name() string { return sc.name }

// Encode signs a token for s.
func (sc *SessionCookie) Encode(s *domain.Session) (string, error) {
	claims := sessionClaims{
		SessionID: s.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sc.secret)
}

// Decode verifies value and returns the session id it carries.
func (sc *SessionCookie) Decode(value string) (string, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(value, &claims, func(*jwt.Token) (any, error) {
		return sc.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(sc.now),
	)
	if err != nil {
		return "", err
	}
	if claims.SessionID == "" {
		return "", errMissingSessionID
	}
	return claims.SessionID, nil
}

// Issue writes the cookie for s on the response.
func (sc *SessionCookie) Issue(c echo.Context, s *domain.Session) error {
	value, err := sc.Encode(s)
	if err != nil {
		return err
	}
	maxAge := int(s.ExpiresAt.Sub(sc.now()).Seconds())
	if sc.ttl > 0 && maxAge > int(sc.ttl.Seconds()) {
		maxAge = int(sc.ttl.Seconds())
	}
	c.SetCookie(sc.cookie(value, maxAge, s.ExpiresAt))
	return nil
}

// Clear expires the cookie on the client.
func (sc *SessionCookie) Clear(c echo.Context) {
	c.SetCookie(sc.cookie("", -1, time.Unix(0, 0)))
}

func (sc *SessionCookie) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     sc.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   sc.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// LoadSession puts the session id from a valid cookie on the context.
// Missing, forged or expired cookies leave the request anonymous.
func (sc *SessionCookie) LoadSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(sc.name)
			if err == nil && ck.Value != "" {
				if sid, err := sc.Decode(ck.Value); err == nil {
					c.Set(sessionIDKey, sid)
				} else {
					c.Logger().Debugf("ignoring session cookie: %v", err)
				}
			}
			return next(c)
		}
	}
}

// SessionID returns the id stored by LoadSession, or "".
func SessionID(c echo.Context) string {
	sid, _ := c.Get(sessionIDKey).(string)
	return sid
}
