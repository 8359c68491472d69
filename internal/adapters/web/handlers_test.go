package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-sales/internal/app"
	"erp-sales/internal/core"
	"erp-sales/internal/lock"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeApp struct {
	app.ApplicationService
	err       error
	lastActor core.Actor
	lastQuote app.CreateQuoteRequest
}

func (f *fakeApp) GetInvoice(_ context.Context, actor core.Actor, id int) (*core.Invoice, error) {
	f.lastActor = actor
	if f.err != nil {
		return nil, f.err
	}
	return &core.Invoice{
		ID:         id,
		Number:     "RE-2024-0001",
		Status:     core.StatusPartial,
		IssueDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:    time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		PaidAmount: decimal.RequireFromString("18.63"),
		Totals: core.Totals{
			Subtotal: decimal.RequireFromString("230"),
			Total:    decimal.RequireFromString("248.63"),
		},
	}, nil
}

func (f *fakeApp) CreateQuote(_ context.Context, actor core.Actor, req app.CreateQuoteRequest) (*core.Quote, error) {
	f.lastActor = actor
	f.lastQuote = req
	if f.err != nil {
		return nil, f.err
	}
	return &core.Quote{ID: 1, Number: "AN-2024-0001", Status: core.StatusDraft}, nil
}

func (f *fakeApp) SweepOverdue(_ context.Context, actor core.Actor, asOf string) (*app.SweepResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &app.SweepResult{CompanyID: actor.CompanyID, AsOf: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func newTestHandler(svc app.ApplicationService) http.Handler {
	return NewHandler(svc, Options{JWTSecret: testSecret, Log: zerolog.Nop()})
}

func authedRequest(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	token, err := SignToken(testSecret, AuthClaims{UserID: 7, CompanyID: 3}, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthIsPublic(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(&fakeApp{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newTestHandler(&fakeApp{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/invoices/1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeBody(t, rec)["code"])

	other, err := SignToken("another-secret-another-secret-xx", AuthClaims{UserID: 1, CompanyID: 1}, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/invoices/1", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenFromCookie(t *testing.T) {
	svc := &fakeApp{}
	token, err := SignToken(testSecret, AuthClaims{UserID: 2, CompanyID: 5}, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/invoices/4", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookie, Value: token})

	rec := httptest.NewRecorder()
	newTestHandler(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.Actor{CompanyID: 5, UserID: 2}, svc.lastActor)
}

func TestParseTokenRejectsMissingCompany(t *testing.T) {
	token, err := SignToken(testSecret, AuthClaims{UserID: 2}, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, token)
	assert.Error(t, err)
}

func TestGetInvoiceRendersMoneyWithTwoDecimals(t *testing.T) {
	svc := &fakeApp{}
	rec := httptest.NewRecorder()
	newTestHandler(svc).ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/invoices/12", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(12), body["id"])
	assert.Equal(t, "248.63", body["total"])
	assert.Equal(t, "230.00", body["subtotal"])
	assert.Equal(t, "18.63", body["paid_amount"])
	assert.Equal(t, "230.00", body["open_amount"])
	assert.Equal(t, "2024-03-31", body["due_date"])
	assert.Equal(t, core.Actor{CompanyID: 3, UserID: 7}, svc.lastActor)
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", &core.NotFoundError{Entity: "invoice", ID: 12}, http.StatusNotFound, "NOT_FOUND"},
		{"invalid state", &core.InvalidStateError{Entity: "invoice", ID: 12, Status: "PAID", Op: "send reminder"}, http.StatusConflict, "INVALID_STATE"},
		{"conflict", &core.ConflictError{Entity: "invoice", Key: "RE-2024-0001"}, http.StatusConflict, "CONFLICT"},
		{"limit", &core.LimitExceededError{Entity: "invoice", ID: 12, Limit: 3, Reason: "maximum reminders reached"}, http.StatusConflict, "LIMIT_EXCEEDED"},
		{"locked", lock.ErrLocked, http.StatusConflict, "LOCKED"},
		{"validation", &core.ValidationError{Fields: []core.FieldError{{Field: "amount", Message: "must be greater than zero"}}}, http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestHandler(&fakeApp{err: tc.err}).ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/invoices/12", ""))

			assert.Equal(t, tc.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tc.code, body["code"])
			assert.NotEmpty(t, body["request_id"])
			if tc.code == "INTERNAL_ERROR" {
				assert.Equal(t, "internal server error", body["error"])
			}
		})
	}
}

func TestValidationErrorListsFields(t *testing.T) {
	svc := &fakeApp{err: &core.ValidationError{Fields: []core.FieldError{{Field: "items[0].quantity", Message: "must be greater than zero"}}}}
	rec := httptest.NewRecorder()
	newTestHandler(svc).ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/quotes", `{"items":[{"description":"x","quantity":"0","unit_price":"1","vat_category":"STANDARD"}]}`))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields, ok := decodeBody(t, rec)["fields"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 1)
}

func TestCreateQuoteDecodesBody(t *testing.T) {
	svc := &fakeApp{}
	rec := httptest.NewRecorder()
	newTestHandler(svc).ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/quotes",
		`{"customer_name":"Muster AG","items":[{"description":"Beratung","quantity":"2","unit_price":"115","vat_category":"STANDARD"}]}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "AN-2024-0001", decodeBody(t, rec)["number"])
	assert.Equal(t, "Muster AG", svc.lastQuote.CustomerName)
	require.Len(t, svc.lastQuote.Items, 1)
	assert.True(t, svc.lastQuote.Items[0].UnitPrice.Equal(decimal.NewFromInt(115)))
}

func TestBadJSONIsRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(&fakeApp{}).ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/quotes", `{"items":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decodeBody(t, rec)["code"])
}

func TestInvalidIDIsRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(&fakeApp{}).ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/invoices/abc", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSweepAcceptsEmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(&fakeApp{}).ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/invoices/overdue-sweep", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "2024-07-01", body["as_of"])
	assert.Equal(t, float64(0), body["count"])
}

func TestSchemaPublishesDecimalsAsStrings(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(&fakeApp{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schema/payment", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	props, ok := body["properties"].(map[string]any)
	require.True(t, ok)
	amount, ok := props["amount"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", amount["type"])

	rec = httptest.NewRecorder()
	newTestHandler(&fakeApp{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schema/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
