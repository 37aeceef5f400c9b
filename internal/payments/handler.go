package payments

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SAMahlangu/Sindiswa/internal/booking"
	"github.com/SAMahlangu/Sindiswa/internal/cache"
	"github.com/SAMahlangu/Sindiswa/internal/httpx"
	"github.com/SAMahlangu/Sindiswa/internal/middleware"
	"github.com/SAMahlangu/Sindiswa/internal/models"
	"github.com/SAMahlangu/Sindiswa/internal/transport"
	"github.com/SAMahlangu/Sindiswa/internal/validation"

	"github.com/google/uuid"
)

// Gateway holds the PayFast merchant settings used to sign outbound checkout
// requests and authenticate inbound notifications.
type Gateway struct {
	MerchantID  string
	MerchantKey string
	Passphrase  string
	ProcessURL  string
	ReturnURL   string
	CancelURL   string
	NotifyURL   string
}

func (g Gateway) configured() bool {
	return g.MerchantID != "" && g.MerchantKey != "" && g.Passphrase != ""
}

type ReceiptMailer interface {
	SendPaymentReceipt(ctx context.Context, appt models.Appointment) (string, error)
}

type CheckoutRequest struct {
	AppointmentID string `json:"appointment_id" validate:"required"`
}

type CheckoutResponse struct {
	ProcessURL string            `json:"process_url"`
	Fields     map[string]string `json:"fields"`
}

type Handler struct {
	service *Service
	gateway Gateway
	val     *validation.Validator
	log     *slog.Logger
	cache   cache.Cache
	mailer  ReceiptMailer
}

func NewHandler(service *Service, gateway Gateway, val *validation.Validator, log *slog.Logger, c cache.Cache, mailer ReceiptMailer) *Handler {
	if c == nil {
		c = cache.NewNoop()
	}
	return &Handler{
		service: service,
		gateway: gateway,
		val:     val,
		log:     log,
		cache:   c,
		mailer:  mailer,
	}
}

// Webhook consumes PayFast ITN callbacks. The gateway redelivers until it
// sees a 2xx, so every handled outcome acknowledges with 200 even when it
// changed nothing; non-2xx is reserved for genuine delivery problems
// (bad signature, unparseable body, storage down).
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	if r.Method != http.MethodPost {
		transport.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}

	if err := r.ParseForm(); err != nil {
		log.Warn("payfast webhook: unparseable form")
		transport.WriteError(w, http.StatusBadRequest, "invalid form", nil)
		return
	}

	n := ParseNotification(r.PostForm)
	if !Verify(n.Fields, n.Signature, h.gateway.Passphrase) {
		log.Warn("payfast webhook: invalid signature",
			slog.String("appointment_id", n.AppointmentID),
			slog.String("reference", n.Reference),
		)
		transport.WriteError(w, http.StatusBadRequest, "invalid signature", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	result, appt, err := h.service.Reconcile(ctx, n)
	if err != nil {
		log.Error("payfast webhook: storage error",
			slog.String("appointment_id", n.AppointmentID),
			slog.String("error", err.Error()),
		)
		transport.WriteError(w, http.StatusInternalServerError, "storage error", nil)
		return
	}

	switch result {
	case ResultPaid:
		if !AmountMatches(n, appt) {
			log.Warn("payfast webhook: amount mismatch",
				slog.String("appointment_id", appt.ID),
				slog.String("amount_gross", n.AmountGross),
				slog.String("deposit_amount", appt.DepositAmount),
			)
		}
		if h.mailer != nil {
			go h.sendReceipt(appt)
		}
		log.Info("payfast webhook: paid",
			slog.String("appointment_id", appt.ID),
			slog.String("reference", n.Reference),
		)
	case ResultAlreadyPaid:
		log.Info("payfast webhook: redelivery, already paid", slog.String("appointment_id", appt.ID))
	case ResultCancelled:
		h.invalidateAvailability(r.Context(), appt)
		log.Info("payfast webhook: payment failed, booking cancelled", slog.String("appointment_id", appt.ID))
	case ResultUnknownAppointment:
		log.Warn("payfast webhook: unknown appointment", slog.String("appointment_id", n.AppointmentID))
	case ResultIgnored:
		log.Warn("payfast webhook: unhandled payment status",
			slog.String("appointment_id", n.AppointmentID),
			slog.String("payment_status", n.RawStatus),
		)
	default:
		log.Info("payfast webhook: no-op", slog.String("appointment_id", n.AppointmentID))
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Checkout builds the signed PayFast redirect field set for an appointment's
// deposit. Signing happens server side so the passphrase never reaches the
// browser.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	if !h.gateway.configured() {
		log.Warn("payments checkout: gateway not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "payment gateway not configured", nil)
		return
	}

	var req CheckoutRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("payments checkout: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("payments checkout: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appt, err := h.service.bookings.Get(ctx, req.AppointmentID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			log.Warn("payments checkout: not found", slog.String("appointment_id", req.AppointmentID))
			transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
			return
		}
		log.Error("payments checkout: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	if appt.Status != models.AppointmentStatusPending {
		log.Warn("payments checkout: not payable",
			slog.String("appointment_id", appt.ID),
			slog.String("status", appt.Status),
		)
		transport.WriteError(w, http.StatusConflict, "appointment not awaiting payment", nil)
		return
	}

	fields := map[string]string{
		"merchant_id":  h.gateway.MerchantID,
		"merchant_key": h.gateway.MerchantKey,
		"m_payment_id": uuid.NewString(),
		"amount":       appt.DepositAmount,
		"item_name":    appt.ServiceName + " deposit",
		"custom_str1":  appt.ID,
	}
	if h.gateway.ReturnURL != "" {
		fields["return_url"] = h.gateway.ReturnURL
	}
	if h.gateway.CancelURL != "" {
		fields["cancel_url"] = h.gateway.CancelURL
	}
	if h.gateway.NotifyURL != "" {
		fields["notify_url"] = h.gateway.NotifyURL
	}
	fields["signature"] = Sign(withoutSignature(fields), h.gateway.Passphrase)

	log.Info("payments checkout: ok",
		slog.String("appointment_id", appt.ID),
		slog.String("amount", appt.DepositAmount),
	)
	transport.WriteJSON(w, http.StatusOK, CheckoutResponse{
		ProcessURL: h.gateway.ProcessURL,
		Fields:     fields,
	})
}

func withoutSignature(fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == "signature" {
			continue
		}
		out[k] = v
	}
	return out
}

func (h *Handler) sendReceipt(appt models.Appointment) {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	messageID, err := h.mailer.SendPaymentReceipt(ctx, appt)
	if err != nil {
		h.log.Warn("payments email: send failed",
			slog.String("appointment_id", appt.ID),
			slog.String("email", appt.ClientEmail),
			slog.String("error", err.Error()),
		)
		return
	}
	h.log.Info("payments email: sent",
		slog.String("appointment_id", appt.ID),
		slog.String("email", appt.ClientEmail),
		slog.String("message_id", messageID),
	)
}

func (h *Handler) invalidateAvailability(ctx context.Context, appt models.Appointment) {
	if appt.ServiceID == "" || appt.Date == "" {
		return
	}
	_ = h.cache.Delete(ctx, "availability:"+appt.ServiceID+":"+appt.Date)
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
