package vnpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoppay/internal/payment"
	"shoppay/internal/pkg/httpclient"
)

func paidQueryResponse() queryResponse {
	return queryResponse{
		ResponseID:        "resp-1",
		Command:           CommandQuery,
		ResponseCode:      "00",
		Message:           "QueryDR Success",
		TmnCode:           "SHOPTEST",
		TxnRef:            "665f1c",
		Amount:            "25000000",
		BankCode:          "NCB",
		PayDate:           "20261017094512",
		TransactionNo:     "14123456",
		TransactionType:   "01",
		TransactionStatus: "00",
		OrderInfo:         "Thanh toan don hang 665f1c",
	}
}

// newQueryServer answers every querydr call with resp, signed with secret,
// after checking the request's own signature.
func newQueryServer(t *testing.T, resp queryResponse, secret string) (*httptest.Server, *queryBody) {
	t.Helper()
	got := &queryBody{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(got))

		data := strings.Join([]string{
			got.RequestID, got.Version, got.Command, got.TmnCode, got.TxnRef,
			got.TransactionDate, got.CreateDate, got.IPAddr, got.OrderInfo,
		}, "|")
		assert.Equal(t, Sign(data, testSecret), got.SecureHash)

		resp.SecureHash = Sign(resp.signData(), secret)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newTestQueryClient(queryURL string) *QueryClient {
	cfg := testConfig()
	cfg.QueryURL = queryURL
	qc := NewQueryClient(cfg, httpclient.New().WithRetries(0))
	qc.now = fixedClock
	qc.requestID = func() string { return "req-1" }
	return qc
}

func TestQueryTransaction_Paid(t *testing.T) {
	srv, got := newQueryServer(t, paidQueryResponse(), testSecret)
	qc := newTestQueryClient(srv.URL)

	res, err := qc.QueryTransaction(context.Background(), QueryRequest{
		OrderRef:        "665f1c",
		TransactionDate: "20261017093000",
		ClientIP:        "::1",
	})
	require.NoError(t, err)

	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, CommandQuery, got.Command)
	assert.Equal(t, "SHOPTEST", got.TmnCode)
	assert.Equal(t, "20261017093000", got.TransactionDate)
	assert.Equal(t, "20261017093000", got.CreateDate)
	assert.Equal(t, "127.0.0.1", got.IPAddr)
	assert.Equal(t, "Truy van giao dich 665f1c", got.OrderInfo)

	assert.True(t, res.SignatureValid)
	assert.True(t, res.BusinessSuccess)
	assert.Equal(t, "14123456", res.TransactionNo)
	assert.Equal(t, "665f1c", res.OrderRef)
	assert.True(t, decimal.RequireFromString("10").Equal(res.Amount))
}

func TestQueryTransaction_PendingStatus(t *testing.T) {
	resp := paidQueryResponse()
	resp.TransactionStatus = "01"
	srv, _ := newQueryServer(t, resp, testSecret)

	res, err := newTestQueryClient(srv.URL).QueryTransaction(context.Background(), QueryRequest{OrderRef: "665f1c"})
	require.NoError(t, err)
	assert.True(t, res.SignatureValid)
	assert.False(t, res.BusinessSuccess)
	assert.Equal(t, "01", res.ResponseCode)
}

func TestQueryTransaction_ForgedResponse(t *testing.T) {
	srv, _ := newQueryServer(t, paidQueryResponse(), "someone-else")

	res, err := newTestQueryClient(srv.URL).QueryTransaction(context.Background(), QueryRequest{OrderRef: "665f1c"})
	require.NoError(t, err)
	assert.False(t, res.SignatureValid)
	assert.False(t, res.BusinessSuccess)
}

func TestQueryTransaction_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusInternalServerError)
	}))
	defer srv.Close()

	res, err := newTestQueryClient(srv.URL).QueryTransaction(context.Background(), QueryRequest{OrderRef: "665f1c"})
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestQueryTransaction_Validation(t *testing.T) {
	qc := newTestQueryClient("")
	_, err := qc.QueryTransaction(context.Background(), QueryRequest{OrderRef: "665f1c"})
	assert.ErrorIs(t, err, payment.ErrConfiguration)

	qc = newTestQueryClient("https://query.test")
	_, err = qc.QueryTransaction(context.Background(), QueryRequest{})
	assert.ErrorIs(t, err, payment.ErrInvalidOrderID)
}
