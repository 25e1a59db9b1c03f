package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopping_app/internal/logging"
	"github.com/Skotchmaster/shopping_app/internal/session"
)

const (
	sessionKey  = "session"
	identityKey = "identity"
)

// IdentityLookup resolves the current role of a user. A missing user is
// reported as gorm.ErrRecordNotFound.
type IdentityLookup interface {
	GetRole(ctx context.Context, id uuid.UUID) (string, error)
}

type Identity struct {
	ID   uuid.UUID
	Role string
}

// Gate guards routes in a fixed order: Authenticate, then AttachIdentity, then RequireRole.
// Each stage short-circuits the request on failure.
type Gate struct {
	Sessions *session.Manager
	Users    IdentityLookup
}

func (g *Gate) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := g.Sessions.Read(c)
		if err != nil {
			if errors.Is(err, session.ErrInvalidSession) {
				g.Sessions.Clear(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
		if !claims.LoggedIn {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
		if _, err := claims.UserID(); err != nil {
			g.Sessions.Clear(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}

		c.Set(sessionKey, claims)
		return next(c)
	}
}

// AttachIdentity loads the role of the session's user. Requests without a
// session, or whose user no longer exists, pass through without an identity.
func (g *Gate) AttachIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := IdentityFrom(c); ok {
			return next(c)
		}

		claims, ok := SessionFrom(c)
		if !ok {
			var err error
			claims, err = g.Sessions.Read(c)
			if err != nil || !claims.LoggedIn {
				return next(c)
			}
		}
		userID, err := claims.UserID()
		if err != nil {
			return next(c)
		}

		ctx := c.Request().Context()
		role, err := g.Users.GetRole(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return next(c)
			}
			logging.FromContext(ctx).Error("attach_identity_error", "status", http.StatusInternalServerError, "user_id", userID.String(), "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
		}

		c.Set(identityKey, Identity{ID: userID, Role: role})
		return next(c)
	}
}

// RequireRole only inspects the attached identity; it never performs a lookup.
func (g *Gate) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok || id.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
			}
			return next(c)
		}
	}
}

// RequireGuest rejects requests that already carry a logged-in session.
func (g *Gate) RequireGuest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if claims, err := g.Sessions.Read(c); err == nil && claims.LoggedIn {
			return echo.NewHTTPError(http.StatusBadRequest, "Already logged in")
		}
		return next(c)
	}
}

// Chain returns the gate stages in order. An empty role skips the authorization stage.
func (g *Gate) Chain(role string) []echo.MiddlewareFunc {
	mws := []echo.MiddlewareFunc{g.Authenticate, g.AttachIdentity}
	if role != "" {
		mws = append(mws, g.RequireRole(role))
	}
	return mws
}

func SessionFrom(c echo.Context) (*session.Claims, bool) {
	claims, ok := c.Get(sessionKey).(*session.Claims)
	return claims, ok && claims != nil
}

func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}
