package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/robotech_store/internal/service"
	"github.com/Skotchmaster/robotech_store/internal/transport"
	"github.com/Skotchmaster/robotech_store/pkg/logging"
)

type OrderHTTP struct {
	Svc      *service.OrderService
	Checkout *service.Checkout
}

const msgUserRequired = "User ID required"

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_error", "invalid body", err)
	}
	if strings.TrimSpace(req.UserID) == "" {
		return badRequest(l, "create_order_error", msgUserRequired, nil)
	}

	b := req.BillingInfo
	order, err := h.Checkout.Place(ctx, req.UserID, service.Billing{
		FirstName: b.FirstName,
		LastName:  b.LastName,
		Email:     b.Email,
		Phone:     b.Phone,
		City:      b.City,
		Zip:       b.ZipCode,
		Address:   b.Address,
	}, req.PaymentMethod)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	return c.JSON(http.StatusOK, transport.CreateOrderResponse{
		Success:         true,
		Message:         "Order created successfully",
		OrderID:         order.ID,
		UserOrderNumber: order.UserOrderNumber,
		TotalAmount:     order.TotalAmount.InexactFloat64(),
	})
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userID := strings.TrimSpace(c.QueryParam("user_id"))
	if userID == "" {
		return badRequest(l, "list_orders_error", msgUserRequired, nil)
	}

	orders, err := h.Svc.List(ctx, userID)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewOrders(orders))
}

func (h *OrderHTTP) CompleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.complete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return badRequest(l, "complete_order_error", "order id must be a positive integer", err)
	}

	if _, err := h.Svc.Complete(ctx, uint(id)); err != nil {
		return fail(l, "complete_order_error", err)
	}

	return c.JSON(http.StatusOK, transport.SuccessResponse{Success: true, Message: "Order completed"})
}
