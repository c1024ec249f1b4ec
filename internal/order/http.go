package order

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, service *Service) {
	h := HTTPHandlers{service: service}

	g := e.Group("/order-service")
	g.GET("/all", h.GetAll)
	g.POST("/create", h.PostCreate)
}

type HTTPHandlers struct {
	service *Service
}

func (h *HTTPHandlers) GetAll(c echo.Context) error {
	orders, err := h.service.ListOrders(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}

// PostCreate stores the posted order without checking that its user or
// product exist. Any id in the body is replaced.
func (h *HTTPHandlers) PostCreate(c echo.Context) error {
	var o PurchaseOrder
	if err := c.Bind(&o); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	if _, err := h.service.CreateOrder(c.Request().Context(), o); err != nil {
		return err
	}

	return c.NoContent(http.StatusOK)
}
