package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/robotech_store/internal/transport"
	pkgdb "github.com/Skotchmaster/robotech_store/pkg/db"
	loggingmw "github.com/Skotchmaster/robotech_store/pkg/middleware/logging"
)

type Deps struct {
	Store   *pkgdb.Store
	Catalog *CatalogHTTP
	Cart    *CartHTTP
	Auth    *AuthHTTP
	Orders  *OrderHTTP
}

type Options struct {
	Logger         *slog.Logger
	RequestTimeout time.Duration
	CORSOrigins    []string
}

// New builds the echo instance with the full middleware stack and every route registered.
func New(opts Options, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.RequestID(),
		loggingmw.RequestLogger(opts.Logger),
		middleware.Recover(),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}),
	)
	if opts.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{Timeout: opts.RequestTimeout}))
	}

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error {
		return c.JSON(http.StatusOK, transport.HealthResponse{Status: "ok"})
	})
	e.GET("/health/ready", d.ready)

	api := e.Group("/api")

	api.GET("/products", d.Catalog.GetProducts)
	api.POST("/products/by-ids", d.Catalog.ProductsByIDs)
	api.GET("/search", d.Catalog.Search)

	api.GET("/cart", d.Cart.GetCart)
	api.POST("/cart/update", d.Cart.UpdateCart)
	api.POST("/cart/add", d.Cart.AddToCart)
	api.POST("/cart/remove", d.Cart.RemoveFromCart)
	api.POST("/cart/clear", d.Cart.ClearCart)

	api.POST("/send-otp", d.Auth.SendOTP)
	api.POST("/login", d.Auth.Login)
	api.POST("/logout", d.Auth.Logout)
	api.GET("/user/status", d.Auth.UserStatus)

	api.POST("/orders", d.Orders.CreateOrder)
	api.GET("/orders", d.Orders.ListOrders)
	api.POST("/orders/:id/complete", d.Orders.CompleteOrder)
}

func (d *Deps) ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, transport.HealthResponse{
			Status:  "unavailable",
			Backend: d.Store.Backend(),
			Error:   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, transport.HealthResponse{Status: "ok", Backend: d.Store.Backend()})
}
