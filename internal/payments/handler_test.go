package payments

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/SAMahlangu/Sindiswa/internal/models"
	"github.com/SAMahlangu/Sindiswa/internal/validation"
)

func testHandler(t *testing.T, bookings *fakeBookings, gateway Gateway) *Handler {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Johannesburg")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	svc := NewService(bookings, &fakeLogs{}, loc)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(svc, gateway, validation.New(), logger, nil, nil)
}

func webhookForm(appointmentID, status, passphrase string) url.Values {
	fields := map[string]string{
		"payment_status": status,
		"pf_payment_id":  "pf-123",
		"amount_gross":   "75.00",
		"custom_str1":    appointmentID,
	}
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	form.Set("signature", Sign(fields, passphrase))
	return form
}

func postWebhook(h *Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/payfast/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	return rec
}

func TestWebhookRejectsNonPost(t *testing.T) {
	h := testHandler(t, newFakeBookings(), Gateway{Passphrase: "secret"})
	req := httptest.NewRequest(http.MethodGet, "/api/payments/payfast/webhook", nil)
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	bookings := newFakeBookings()
	bookings.appointments["a1"] = &models.Appointment{ID: "a1", Status: models.AppointmentStatusPending}
	h := testHandler(t, bookings, Gateway{Passphrase: "secret"})

	form := webhookForm("a1", "COMPLETE", "wrong-passphrase")
	rec := postWebhook(h, form)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if bookings.appointments["a1"].Status != models.AppointmentStatusPending {
		t.Fatalf("expected appointment untouched on bad signature")
	}
}

func TestWebhookCompleteMarksPaid(t *testing.T) {
	bookings := newFakeBookings()
	bookings.appointments["a1"] = &models.Appointment{
		ID: "a1", Status: models.AppointmentStatusPending, DepositAmount: "75.00",
	}
	h := testHandler(t, bookings, Gateway{Passphrase: "secret"})

	rec := postWebhook(h, webhookForm("a1", "COMPLETE", "secret"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["success"] != true {
		t.Fatalf("expected success true, got %v", body)
	}
	if bookings.appointments["a1"].Status != models.AppointmentStatusPaid {
		t.Fatalf("expected appointment paid, got %s", bookings.appointments["a1"].Status)
	}
}

func TestWebhookAcksUnknownAppointment(t *testing.T) {
	h := testHandler(t, newFakeBookings(), Gateway{Passphrase: "secret"})
	rec := postWebhook(h, webhookForm("missing", "COMPLETE", "secret"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d", rec.Code)
	}
}

func TestWebhookAcksUnknownStatus(t *testing.T) {
	bookings := newFakeBookings()
	bookings.appointments["a1"] = &models.Appointment{ID: "a1", Status: models.AppointmentStatusPending}
	h := testHandler(t, bookings, Gateway{Passphrase: "secret"})

	rec := postWebhook(h, webhookForm("a1", "PENDING", "secret"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack, got %d", rec.Code)
	}
	if bookings.appointments["a1"].Status != models.AppointmentStatusPending {
		t.Fatalf("expected appointment untouched")
	}
}

func TestCheckoutSignsFieldSet(t *testing.T) {
	bookings := newFakeBookings()
	bookings.appointments["a1"] = &models.Appointment{
		ID: "a1", Status: models.AppointmentStatusPending,
		ServiceName: "Gel Overlay", DepositAmount: "75.00",
	}
	gateway := Gateway{
		MerchantID:  "10000100",
		MerchantKey: "46f0cd694581a",
		Passphrase:  "secret",
		ProcessURL:  "https://sandbox.payfast.co.za/eng/process",
		NotifyURL:   "https://example.com/api/payments/payfast/webhook",
	}
	h := testHandler(t, bookings, gateway)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/checkout", strings.NewReader(`{"appointment_id":"a1"}`))
	rec := httptest.NewRecorder()
	h.Checkout(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp CheckoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ProcessURL != gateway.ProcessURL {
		t.Fatalf("expected process url %s, got %s", gateway.ProcessURL, resp.ProcessURL)
	}
	if resp.Fields["amount"] != "75.00" || resp.Fields["custom_str1"] != "a1" {
		t.Fatalf("unexpected checkout fields: %v", resp.Fields)
	}
	if !Verify(withoutSignature(resp.Fields), resp.Fields["signature"], "secret") {
		t.Fatalf("expected checkout field set to carry a valid signature")
	}
}

func TestCheckoutRejectsNonPending(t *testing.T) {
	bookings := newFakeBookings()
	bookings.appointments["a1"] = &models.Appointment{ID: "a1", Status: models.AppointmentStatusPaid}
	gateway := Gateway{MerchantID: "10000100", MerchantKey: "46f0cd694581a", Passphrase: "secret"}
	h := testHandler(t, bookings, gateway)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/checkout", strings.NewReader(`{"appointment_id":"a1"}`))
	rec := httptest.NewRecorder()
	h.Checkout(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCheckoutRequiresGateway(t *testing.T) {
	h := testHandler(t, newFakeBookings(), Gateway{})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/checkout", strings.NewReader(`{"appointment_id":"a1"}`))
	rec := httptest.NewRecorder()
	h.Checkout(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
