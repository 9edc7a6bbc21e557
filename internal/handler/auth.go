package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/middleware"
	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/service"
)

// AuthHandler serves /api/auth.
type AuthHandler struct {
	auth         *service.AuthService
	cookieSecure bool
}

func NewAuthHandler(auth *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieSecure: cookieSecure}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type authResp struct {
	User   *model.User     `json:"user"`
	Tokens *service.Tokens `json:"tokens"`
}

func (h *AuthHandler) setAccessCookie(c echo.Context, t *service.Tokens) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    t.AccessToken,
		Path:     "/",
		Expires:  t.AccessExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearAccessCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Register creates a customer account and signs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, tokens, err := h.auth.Register(ctx, strings.TrimSpace(req.Email), strings.TrimSpace(req.Name), req.Password)
	if err != nil {
		return err
	}
	h.setAccessCookie(c, tokens)
	return c.JSON(http.StatusCreated, authResp{User: u, Tokens: tokens})
}

// Login verifies credentials and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, tokens, err := h.auth.Login(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return err
	}
	h.setAccessCookie(c, tokens)
	return c.JSON(http.StatusOK, authResp{User: u, Tokens: tokens})
}

// Refresh rotates a refresh token.  The old token stops working.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, tokens, err := h.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return err
	}
	h.setAccessCookie(c, tokens)
	return c.JSON(http.StatusOK, authResp{User: u, Tokens: tokens})
}

// Logout revokes the given refresh token, if any, and clears the cookie.
// It always succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = c.Bind(&req)
	if req.RefreshToken != "" {
		ctx, cancel := reqCtx(c)
		defer cancel()
		if err := h.auth.Logout(ctx, req.RefreshToken); err != nil {
			return err
		}
	}
	h.clearAccessCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.auth.Me(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
