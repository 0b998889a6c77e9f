package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"shoppay/internal/metrics"
	"shoppay/internal/middleware"
	"shoppay/internal/models"
	"shoppay/internal/payment"
	"shoppay/internal/payment/settlement"
)

// OrderReader is the order access the handlers need outside of settlement.
type OrderReader interface {
	FindByID(ctx context.Context, id string) (*models.Order, error)
	RecordPaymentRequest(ctx context.Context, id, createDate, clientIP string, at time.Time) error
}

// Settler applies verified callbacks to orders.
type Settler interface {
	Settle(ctx context.Context, res *payment.CallbackResult, orderID string) (*settlement.Outcome, error)
}

// PaymentHandler exposes payment creation and the gateway callbacks.
type PaymentHandler struct {
	orders      OrderReader
	gateway     payment.Gateway
	settler     Settler
	frontendURL string
	logger      *zap.Logger
}

func NewPaymentHandler(orders OrderReader, gateway payment.Gateway, settler Settler, frontendURL string, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		orders:      orders,
		gateway:     gateway,
		settler:     settler,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// GetOrder returns one order.
// GET /api/orders/:id
func (h *PaymentHandler) GetOrder(c echo.Context) error {
	order, err := h.orders.FindByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to load order", zap.String("order_id", c.Param("id")), zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "Failed to load order")
	}
	if order == nil {
		return errorJSON(c, http.StatusNotFound, "Order not found")
	}
	return c.JSON(http.StatusOK, order)
}

// CreateVNPayPayment signs a payment attempt for an unpaid order.
// POST /api/orders/:id/vnpay
func (h *PaymentHandler) CreateVNPayPayment(c echo.Context) error {
	ctx := c.Request().Context()
	orderID := c.Param("id")

	var body models.CreatePaymentRequest
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}

	order, err := h.orders.FindByID(ctx, orderID)
	if err != nil {
		h.logger.Error("Failed to load order", zap.String("order_id", orderID), zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "Failed to load order")
	}
	if order == nil {
		return errorJSON(c, http.StatusNotFound, "Order not found")
	}
	if order.IsPaid {
		return errorJSON(c, http.StatusBadRequest, "Order is already paid")
	}

	req, err := h.gateway.BuildPaymentURL(payment.Charge{
		OrderID:     order.ID,
		Amount:      order.TotalPrice,
		Description: "Thanh toan don hang " + order.ID,
	}, payment.ClientContext{
		IP:       c.RealIP(),
		Locale:   body.Language,
		BankCode: body.BankCode,
	})
	switch {
	case errors.Is(err, payment.ErrConfiguration):
		h.logger.Error("Payment gateway misconfigured", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "Payment gateway is not configured")
	case err != nil:
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	if err := h.orders.RecordPaymentRequest(ctx, order.ID, req.CreateDate(), req.ClientIP, req.CreatedAt); err != nil {
		h.logger.Warn("Failed to record payment attempt", zap.String("order_id", order.ID), zap.Error(err))
	}

	h.logger.Info("Payment URL created",
		zap.String("order_id", order.ID),
		zap.Int64("amount", req.Amount),
		zap.String("client_ip", req.ClientIP),
	)
	return c.JSON(http.StatusOK, models.PaymentURLResponse{PaymentURL: req.URL})
}

// VNPayReturn handles the browser redirect back from the gateway.
// GET /api/orders/vnpay/return
func (h *PaymentHandler) VNPayReturn(c echo.Context) error {
	res := h.gateway.VerifyCallback(payment.ParamsFromValues(c.QueryParams()))

	out, err := h.settler.Settle(c.Request().Context(), res, res.OrderRef)
	metrics.CallbackReceived("return", callbackLabel(out, err))
	if err != nil {
		return c.Redirect(http.StatusFound, h.frontendURL+"?payment=fail")
	}
	return c.Redirect(http.StatusFound, h.frontendURL+"/order/"+out.Order.ID)
}

// VNPayIPN handles the gateway's server-to-server notification. The gateway
// retries until it receives an acknowledgement, so every outcome is answered
// with HTTP 200 and a RspCode.
// GET /api/orders/vnpay/ipn
func (h *PaymentHandler) VNPayIPN(c echo.Context) error {
	res := h.gateway.VerifyCallback(payment.ParamsFromValues(c.QueryParams()))

	out, err := h.settler.Settle(c.Request().Context(), res, res.OrderRef)
	metrics.CallbackReceived("ipn", callbackLabel(out, err))

	ack := ipnAck(out, err)
	// Unverified deliveries never claim the dedup key; the genuine IPN carries the same hash.
	if res.SignatureValid && ack.RspCode != models.RspUnknown {
		c.Set(middleware.CallbackFinalKey, true)
	}
	return c.JSON(http.StatusOK, ack)
}

// UpdateOrderToPaid settles an order from gateway parameters relayed by the
// client after the redirect.
// PUT /api/orders/:id/pay
func (h *PaymentHandler) UpdateOrderToPaid(c echo.Context) error {
	body := make(map[string]interface{})
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	// Only gateway fields are signed; the bound map also carries path params.
	params := make(payment.Params, len(body))
	for k, v := range body {
		if s, ok := v.(string); ok && strings.HasPrefix(k, "vnp_") {
			params[k] = s
		}
	}

	orderID := c.Param("id")
	res := h.gateway.VerifyCallback(params)
	out, err := h.settler.Settle(c.Request().Context(), res, orderID)
	metrics.CallbackReceived("client", callbackLabel(out, err))

	var declined *payment.DeclinedError
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, out.Order)
	case errors.Is(err, payment.ErrOrderNotFound):
		return errorJSON(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, payment.ErrInvalidSignature):
		return errorJSON(c, http.StatusBadRequest, "Payment verification failed")
	case errors.As(err, &declined):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Payment was not successful", Code: declined.Code})
	case errors.Is(err, payment.ErrDuplicateTransaction):
		return errorJSON(c, http.StatusBadRequest, "Transaction already used")
	case errors.Is(err, payment.ErrAmountMismatch):
		return errorJSON(c, http.StatusBadRequest, "Paid amount does not match order total")
	case errors.Is(err, payment.ErrOrderReferenceMismatch), errors.Is(err, payment.ErrMissingTransactionNo):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	default:
		return errorJSON(c, http.StatusInternalServerError, "Failed to update order")
	}
}

func ipnAck(out *settlement.Outcome, err error) models.IPNResponse {
	switch {
	case err == nil && out.Applied:
		return models.IPNResponse{RspCode: models.RspConfirmed, Message: "Confirm Success"}
	case err == nil, errors.Is(err, payment.ErrDuplicateTransaction):
		return models.IPNResponse{RspCode: models.RspAlreadyConfirmed, Message: "Order already confirmed"}
	case errors.Is(err, payment.ErrInvalidSignature):
		return models.IPNResponse{RspCode: models.RspInvalidSignature, Message: "Invalid signature"}
	case errors.Is(err, payment.ErrOrderNotFound), errors.Is(err, payment.ErrOrderReferenceMismatch):
		return models.IPNResponse{RspCode: models.RspOrderNotFound, Message: "Order not found"}
	case errors.Is(err, payment.ErrAmountMismatch):
		return models.IPNResponse{RspCode: models.RspInvalidAmount, Message: "Invalid amount"}
	case errors.Is(err, payment.ErrPaymentDeclined), errors.Is(err, payment.ErrMissingTransactionNo):
		// The failed attempt is acknowledged; the order simply stays unpaid.
		return models.IPNResponse{RspCode: models.RspConfirmed, Message: "Confirm Success"}
	default:
		return models.IPNResponse{RspCode: models.RspUnknown, Message: "Unknown error"}
	}
}

func callbackLabel(out *settlement.Outcome, err error) string {
	switch {
	case err == nil && out.Applied:
		return metrics.ResultApplied
	case err == nil:
		return metrics.ResultNoop
	case errors.Is(err, payment.ErrInvalidSignature):
		return metrics.ResultInvalid
	case errors.Is(err, payment.ErrPaymentDeclined):
		return metrics.ResultDeclined
	default:
		return metrics.ResultError
	}
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, models.ErrorResponse{Message: msg})
}
