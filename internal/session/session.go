package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const DefaultCookieName = "session"

var (
	ErrNoSession      = errors.New("session: no session cookie")
	ErrInvalidSession = errors.New("session: invalid session")
)

// Claims is the payload of the signed session cookie. Nothing is stored server side.
type Claims struct {
	LoggedIn bool `json:"logged_in"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type Manager struct {
	Secret     []byte
	TTL        time.Duration
	Secure     bool
	CookieName string
	Now        func() time.Time
}

func NewManager(secret []byte, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		Secret:     secret,
		TTL:        ttl,
		Secure:     secure,
		CookieName: DefaultCookieName,
	}
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) cookieName() string {
	if m.CookieName == "" {
		return DefaultCookieName
	}
	return m.CookieName
}

func (m *Manager) Sign(userID uuid.UUID) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.TTL)
	claims := Claims{
		LoggedIn: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, exp, nil
}

func (m *Manager) Parse(raw string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return m.Secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return &claims, nil
}

// Issue signs a fresh session for userID and sets it on the response.
func (m *Manager) Issue(c echo.Context, userID uuid.UUID) error {
	token, exp, err := m.Sign(userID)
	if err != nil {
		return err
	}
	c.SetCookie(CreateCookie(m.cookieName(), token, "/", exp, m.Secure))
	return nil
}

func (m *Manager) Read(c echo.Context) (*Claims, error) {
	ck, err := c.Cookie(m.cookieName())
	if err != nil || ck.Value == "" {
		return nil, ErrNoSession
	}
	return m.Parse(ck.Value)
}

func (m *Manager) Clear(c echo.Context) {
	c.SetCookie(DeleteCookie(m.cookieName(), "/", m.Secure))
}

func CreateCookie(name, value, path string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
