package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/npkcode00-bit/food-delivery-sub000/internal/middleware"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/model"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/repository"
	"github.com/npkcode00-bit/food-delivery-sub000/internal/service"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	owner, _ := c.Get(middleware.PrincipalKey).(string)

	var req struct {
		Address model.Address          `json:"address"`
		Items   []service.CheckoutItem `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	resp, err := h.checkoutService.Checkout(ctx, &service.CheckoutRequest{
		OwnerEmail: owner,
		Address:    req.Address,
		Items:      req.Items,
	})
	switch {
	case errors.Is(err, repository.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrProviderUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "payment provider unavailable")
	case err != nil:
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) GetIntent(c echo.Context) error {
	ctx := c.Request().Context()

	intent, err := h.checkoutService.GetIntent(ctx, c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.NoContent(http.StatusNotFound)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, intent)
}

// GetOrderByIntent serves the polling boundary: 200 with the order once the
// webhook has materialized it, 404 while it has not.
func (h *CheckoutHandler) GetOrderByIntent(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.checkoutService.FindOrderByIntent(ctx, c.Param("intentID"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.NoContent(http.StatusNotFound)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}
