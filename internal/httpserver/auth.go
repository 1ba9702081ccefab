package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/robotech_store/internal/service"
	"github.com/Skotchmaster/robotech_store/internal/transport"
	"github.com/Skotchmaster/robotech_store/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) SendOTP(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.send_otp")

	var req transport.SendOTPRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "send_otp_error", "invalid body", err)
	}

	code, err := h.Svc.SendOTP(ctx, req.Phone)
	if err != nil {
		return fail(l, "send_otp_error", err)
	}

	l.Info("otp_sent")
	return c.JSON(http.StatusOK, transport.SendOTPResponse{Success: true, OTP: code, Message: "OTP sent successfully"})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}

	u, err := h.Svc.Login(ctx, req.Phone, req.OTP)
	if err != nil {
		return fail(l, "login_error", err)
	}

	l.Info("login_success", "user_id", u.ID)
	return c.JSON(http.StatusOK, transport.LoginResponse{
		Success: true,
		Message: "Login successful",
		User:    transport.User{UserID: u.ID, Phone: u.Phone},
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var req transport.UserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "logout_error", "invalid body", err)
	}

	if err := h.Svc.Logout(ctx, req.UserID); err != nil {
		return fail(l, "logout_error", err)
	}

	return c.JSON(http.StatusOK, transport.SuccessResponse{Success: true, Message: "Logged out"})
}

func (h *AuthHTTP) UserStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.user_status")

	in, err := h.Svc.Status(ctx, c.QueryParam("user_id"))
	if err != nil {
		return fail(l, "user_status_error", err)
	}

	return c.JSON(http.StatusOK, transport.UserStatusResponse{Success: true, LoggedIn: in})
}
