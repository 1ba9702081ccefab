package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/robotech_store/internal/service"
	"github.com/Skotchmaster/robotech_store/internal/transport"
	"github.com/Skotchmaster/robotech_store/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	lines, err := h.Svc.Get(ctx, c.QueryParam("user_id"))
	if err != nil {
		return fail(l, "get_cart_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewCart(lines))
}

func (h *CartHTTP) UpdateCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	req := transport.NewCartUpdateRequest(1)
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "cart_update_error", "invalid body", err)
	}
	qty, err := req.Qty()
	if err != nil {
		return badRequest(l, "cart_update_error", "invalid body", err)
	}

	if err := h.Svc.SetQuantity(ctx, req.UserID, req.Phone, int(req.ProductID), qty); err != nil {
		return fail(l, "cart_update_error", err)
	}

	return c.JSON(http.StatusOK, transport.SuccessResponse{Success: true, Message: "Cart updated"})
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	req := transport.NewCartUpdateRequest(1)
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "cart_add_error", "invalid body", err)
	}
	qty, err := req.Qty()
	if err != nil {
		return badRequest(l, "cart_add_error", "invalid body", err)
	}

	total, err := h.Svc.Add(ctx, req.UserID, req.Phone, int(req.ProductID), qty)
	if err != nil {
		return fail(l, "cart_add_error", err)
	}

	return c.JSON(http.StatusOK, transport.CartAddResponse{Success: true, Quantity: total})
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	var req transport.CartRemoveRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "cart_remove_error", "invalid body", err)
	}

	if err := h.Svc.Remove(ctx, req.UserID, int(req.ProductID)); err != nil {
		return fail(l, "cart_remove_error", err)
	}

	return c.JSON(http.StatusOK, transport.SuccessResponse{Success: true})
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	var req transport.UserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "cart_clear_error", "invalid body", err)
	}

	n, err := h.Svc.Clear(ctx, req.UserID)
	if err != nil {
		return fail(l, "cart_clear_error", err)
	}

	return c.JSON(http.StatusOK, transport.CartClearResponse{Success: true, Removed: n})
}
