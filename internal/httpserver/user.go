package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopping_app/internal/logging"
	"github.com/Skotchmaster/shopping_app/internal/service"
	"github.com/Skotchmaster/shopping_app/internal/session"
)

type UserHTTP struct {
	Svc      *service.UserService
	Sessions *session.Manager
}

type userView struct {
	ID       string `json:"id"`
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (h *UserHTTP) SignUp(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.signup")

	var req struct {
		FullName string `json:"fullname"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "signup", "invalid body", err)
	}

	user, err := h.Svc.SignUp(ctx, req.FullName, req.Email, req.Password)
	if err != nil {
		return fail(l, "signup", err, "Internal server error")
	}
	if err := h.Sessions.Issue(c, user.ID); err != nil {
		return fail(l, "signup", err, "Internal server error")
	}

	l.Info("signup_success", "user_id", user.ID.String())
	return c.JSON(http.StatusCreated, map[string]any{
		"message":  "User created successfully",
		"id":       user.ID,
		"fullname": user.FullName,
		"email":    user.Email,
	})
}

func (h *UserHTTP) LogIn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login", "invalid body", err)
	}

	user, err := h.Svc.LogIn(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login", err, "Internal server error")
	}
	if err := h.Sessions.Issue(c, user.ID); err != nil {
		return fail(l, "login", err, "Internal server error")
	}

	l.Info("login_success", "user_id", user.ID.String())
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Login successful",
		"user": userView{
			ID:       user.ID.String(),
			FullName: user.FullName,
			Email:    user.Email,
			Role:     user.Role,
		},
	})
}

func (h *UserHTTP) LogOut(c echo.Context) error {
	h.Sessions.Clear(c)
	logging.FromContext(c.Request().Context()).Info("logout_success")
	return c.JSON(http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (h *UserHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.profile")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	user, err := h.Svc.Profile(ctx, userID)
	if err != nil {
		return fail(l, "profile", err, "Internal server error")
	}
	return c.JSON(http.StatusOK, map[string]any{"user": user})
}

func (h *UserHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_profile")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req service.ProfileUpdate
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_profile", "invalid body", err)
	}

	user, err := h.Svc.UpdateProfile(ctx, userID, req)
	if err != nil {
		return fail(l, "update_profile", err, "Internal server error")
	}

	l.Info("update_profile_success", "user_id", userID.String())
	return c.JSON(http.StatusOK, map[string]any{
		"message": "Account updated",
		"user":    user,
	})
}

func (h *UserHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.change_password")

	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "change_password", "invalid body", err)
	}

	if err := h.Svc.ChangePassword(ctx, userID, req.Password); err != nil {
		return fail(l, "change_password", err, "Internal server error")
	}

	l.Info("change_password_success", "user_id", userID.String())
	return c.JSON(http.StatusOK, map[string]string{"message": "Password updated"})
}
