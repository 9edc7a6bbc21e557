package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/service"
)

// UserHandler is the admin user management API.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type userUpdateReq struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Role     *string `json:"role" validate:"omitempty,oneof=ADMIN CUSTOMER"`
	IsActive *bool   `json:"isActive"`
}

func (h *UserHandler) List(c echo.Context) error {
	limit, offset, err := page(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.users.List(ctx, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.users.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// Update changes name, role or active flag.  Admins cannot demote or
// deactivate themselves.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req userUpdateReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.users.Update(ctx, actor(c), id, service.UserUpdate{
		Name:     req.Name,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.users.Delete(ctx, actor(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
