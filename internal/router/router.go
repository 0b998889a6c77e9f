package router

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"shoppay/internal/handler"
	"shoppay/internal/metrics"
	"shoppay/internal/middleware"
	"shoppay/internal/payment"
)

// Pinger reports whether the database is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	orders handler.OrderReader,
	db Pinger,
	gateway payment.Gateway,
	settler handler.Settler,
	callbackDeduper middleware.CallbackDeduper,
	frontendURL string,
	logger *zap.Logger,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))

	// Handlers
	paymentHandler := handler.NewPaymentHandler(orders, gateway, settler, frontendURL, logger)

	api := e.Group("/api/orders")

	// Gateway callbacks; static segments win over /:id
	api.GET("/vnpay/return", paymentHandler.VNPayReturn)
	api.GET("/vnpay/ipn", paymentHandler.VNPayIPN, middleware.IPNDedup(callbackDeduper))

	api.GET("/:id", paymentHandler.GetOrder)
	api.POST("/:id/vnpay", paymentHandler.CreateVNPayPayment)
	api.PUT("/:id/pay", paymentHandler.UpdateOrderToPaid)

	// Metrics
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		if err := db.PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
