package user

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, service *Service) {
	h := HTTPHandlers{service: service}

	g := e.Group("/user-service")
	g.POST("/create", h.PostCreate)
	g.POST("/update", h.PostUpdate)
	g.GET("/:id", h.GetUser)
}

type HTTPHandlers struct {
	service *Service
}

type createUserRequest struct {
	Email string `json:"email" validate:"required"`
}

type updateUserRequest struct {
	ID    string `json:"id" validate:"required"`
	Email string `json:"email" validate:"required"`
}

// PostCreate answers with the new user id as plain text.
func (h *HTTPHandlers) PostCreate(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	id, err := h.service.CreateUser(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	return c.String(http.StatusOK, id)
}

func (h *HTTPHandlers) PostUpdate(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// Unknown ids and lost events still answer 200.
	if _, err := h.service.UpdateUser(c.Request().Context(), req.ID, req.Email); err != nil {
		return err
	}

	return c.NoContent(http.StatusOK)
}

func (h *HTTPHandlers) GetUser(c echo.Context) error {
	u, err := h.service.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return echo.ErrNotFound
		}
		return err
	}

	return c.JSON(http.StatusOK, u)
}
