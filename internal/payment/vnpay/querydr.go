package vnpay

import (
	"context"
	"crypto/hmac"
	"fmt"
	"strconv"
	"strings"
	"time"

	"shoppay/internal/payment"
	"shoppay/internal/pkg/httpclient"
	"shoppay/internal/pkg/utils"
)

const CommandQuery = "querydr"

// QueryRequest identifies the payment attempt whose status is wanted.
type QueryRequest struct {
	OrderRef        string
	TransactionDate string // vnp_CreateDate of the original attempt
	ClientIP        string
	OrderInfo       string
}

type queryBody struct {
	RequestID       string `json:"vnp_RequestId"`
	Version         string `json:"vnp_Version"`
	Command         string `json:"vnp_Command"`
	TmnCode         string `json:"vnp_TmnCode"`
	TxnRef          string `json:"vnp_TxnRef"`
	OrderInfo       string `json:"vnp_OrderInfo"`
	TransactionDate string `json:"vnp_TransactionDate"`
	CreateDate      string `json:"vnp_CreateDate"`
	IPAddr          string `json:"vnp_IpAddr"`
	SecureHash      string `json:"vnp_SecureHash"`
}

type queryResponse struct {
	ResponseID        string `json:"vnp_ResponseId"`
	Command           string `json:"vnp_Command"`
	ResponseCode      string `json:"vnp_ResponseCode"`
	Message           string `json:"vnp_Message"`
	TmnCode           string `json:"vnp_TmnCode"`
	TxnRef            string `json:"vnp_TxnRef"`
	Amount            string `json:"vnp_Amount"`
	BankCode          string `json:"vnp_BankCode"`
	PayDate           string `json:"vnp_PayDate"`
	TransactionNo     string `json:"vnp_TransactionNo"`
	TransactionType   string `json:"vnp_TransactionType"`
	TransactionStatus string `json:"vnp_TransactionStatus"`
	OrderInfo         string `json:"vnp_OrderInfo"`
	PromotionCode     string `json:"vnp_PromotionCode"`
	PromotionAmount   string `json:"vnp_PromotionAmount"`
	SecureHash        string `json:"vnp_SecureHash"`
}

func (r *queryResponse) signData() string {
	return strings.Join([]string{
		r.ResponseID, r.Command, r.ResponseCode, r.Message, r.TmnCode, r.TxnRef,
		r.Amount, r.BankCode, r.PayDate, r.TransactionNo, r.TransactionType,
		r.TransactionStatus, r.OrderInfo, r.PromotionCode, r.PromotionAmount,
	}, "|")
}

// QueryClient asks the merchant web API for the status of a past attempt.
type QueryClient struct {
	cfg       Config
	client    *httpclient.Client
	now       payment.Clock
	requestID func() string
}

func NewQueryClient(cfg Config, client *httpclient.Client) *QueryClient {
	if client == nil {
		client = httpclient.New().WithTimeout(20 * time.Second)
	}
	return &QueryClient{
		cfg:       cfg,
		client:    client,
		now:       time.Now,
		requestID: utils.NewRequestID,
	}
}

// QueryTransaction returns the attempt's outcome in the same shape as a
// callback. The response signature is checked the same fail-closed way.
// When the query itself succeeds, ResponseCode carries the transaction status.
func (q *QueryClient) QueryTransaction(ctx context.Context, req QueryRequest) (*payment.CallbackResult, error) {
	if err := q.cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(q.cfg.QueryURL) == "" {
		return nil, fmt.Errorf("%w: query url (VNPAY_QUERY_URL) is empty", payment.ErrConfiguration)
	}
	if strings.TrimSpace(req.OrderRef) == "" {
		return nil, fmt.Errorf("%w: order id is empty", payment.ErrInvalidOrderID)
	}

	info := SanitizeOrderInfo(req.OrderInfo)
	if info == "" {
		info = "Truy van giao dich " + SanitizeOrderInfo(req.OrderRef)
	}
	body := queryBody{
		RequestID:       q.requestID(),
		Version:         q.cfg.version(),
		Command:         CommandQuery,
		TmnCode:         q.cfg.TmnCode,
		TxnRef:          req.OrderRef,
		OrderInfo:       info,
		TransactionDate: req.TransactionDate,
		CreateDate:      q.now().In(q.cfg.location()).Format(payment.TimeLayout),
		IPAddr:          NormalizeIP(req.ClientIP),
	}
	body.SecureHash = Sign(strings.Join([]string{
		body.RequestID, body.Version, body.Command, body.TmnCode, body.TxnRef,
		body.TransactionDate, body.CreateDate, body.IPAddr, body.OrderInfo,
	}, "|"), q.cfg.HashSecret)

	var resp queryResponse
	if err := q.client.PostJSON(ctx, q.cfg.QueryURL, body, &resp); err != nil {
		return nil, fmt.Errorf("vnpay querydr %s: %w", req.OrderRef, err)
	}

	expected := Sign(resp.signData(), q.cfg.HashSecret)
	res := &payment.CallbackResult{
		SignatureValid:    hmac.Equal([]byte(expected), []byte(strings.ToLower(resp.SecureHash))),
		ResponseCode:      resp.ResponseCode,
		TransactionStatus: resp.TransactionStatus,
		TransactionNo:     resp.TransactionNo,
		OrderRef:          resp.TxnRef,
		BankCode:          resp.BankCode,
		PayDate:           resp.PayDate,
	}
	if res.ResponseCode == "" {
		res.ResponseCode = payment.UnknownCode
	}
	if res.ResponseCode == payment.SuccessCode && res.TransactionStatus != "" {
		res.ResponseCode = res.TransactionStatus
	}
	res.BusinessSuccess = res.SignatureValid && res.ResponseCode == payment.SuccessCode

	if minor, err := strconv.ParseInt(resp.Amount, 10, 64); err == nil && minor > 0 {
		res.MinorAmount = minor
		res.Amount = FromMinor(minor, q.cfg.Rate())
	}
	if t, err := time.ParseInLocation(payment.TimeLayout, res.PayDate, q.cfg.location()); err == nil {
		res.PaidAt = t
	}
	return res, nil
}
