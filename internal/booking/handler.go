package booking

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SAMahlangu/Sindiswa/internal/cache"
	"github.com/SAMahlangu/Sindiswa/internal/httpx"
	"github.com/SAMahlangu/Sindiswa/internal/middleware"
	"github.com/SAMahlangu/Sindiswa/internal/models"
	"github.com/SAMahlangu/Sindiswa/internal/money"
	"github.com/SAMahlangu/Sindiswa/internal/transport"
	"github.com/SAMahlangu/Sindiswa/internal/validation"

	"github.com/go-chi/chi/v5"
)

type LookupRequest struct {
	ClientPhone string `json:"client_phone" validate:"required,phone"`
	Date        string `json:"date" validate:"required,date"`
}

type AdminStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=completed cancelled"`
}

type availabilityQuery struct {
	Date string `validate:"required,date"`
}

// Mailer sends the booking-received email. notifications.Recorder implements
// it.
type Mailer interface {
	SendBookingPending(ctx context.Context, appt models.Appointment) (string, error)
}

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
	cache   cache.Cache
	ttl     time.Duration
	mailer  Mailer
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger, c cache.Cache, cacheTTL time.Duration, mailer Mailer) *Handler {
	if c == nil {
		c = cache.NewNoop()
	}
	return &Handler{
		service: service,
		val:     val,
		log:     log,
		cache:   c,
		ttl:     cacheTTL,
		mailer:  mailer,
	}
}

func (h *Handler) GetServiceAvailability(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	serviceID := chi.URLParam(r, "id")
	if serviceID == "" {
		log.Warn("availability: missing service id")
		transport.WriteError(w, http.StatusBadRequest, "missing service id", nil)
		return
	}

	q := availabilityQuery{Date: r.URL.Query().Get("date")}
	if err := h.val.Struct(q); err != nil {
		log.Warn("availability: invalid query")
		transport.WriteError(w, http.StatusBadRequest, "invalid query", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	cacheKey := "availability:" + serviceID + ":" + q.Date
	if cached, ok, err := h.cache.Get(r.Context(), cacheKey); err == nil && ok {
		log.Info("availability: cache hit", slog.String("service_id", serviceID), slog.String("date", q.Date))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	avail, err := h.service.Availability(ctx, serviceID, q.Date)
	if err != nil {
		switch {
		case errors.Is(err, ErrServiceNotFound):
			log.Warn("availability: service not found", slog.String("service_id", serviceID))
			transport.WriteError(w, http.StatusNotFound, "service not found", nil)
		case errors.Is(err, ErrDateInPast):
			log.Warn("availability: date in the past", slog.String("date", q.Date))
			transport.WriteError(w, http.StatusBadRequest, "date in the past", nil)
		default:
			log.Error("availability: compute error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "availability error", nil)
		}
		return
	}

	if payload, err := json.Marshal(avail); err == nil {
		_ = h.cache.Set(r.Context(), cacheKey, payload, h.ttl)
	}

	log.Info("availability: ok",
		slog.String("service_id", serviceID),
		slog.String("date", q.Date),
		slog.Int("slots", len(avail.Slots)),
	)
	transport.WriteJSON(w, http.StatusOK, avail)
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("appointments create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("appointments create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	appt, err := h.service.Create(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrServiceNotFound):
			log.Warn("appointments create: service not found", slog.String("service_id", req.ServiceID))
			transport.WriteError(w, http.StatusBadRequest, "service not found", nil)
		case errors.Is(err, ErrDateInPast):
			log.Warn("appointments create: date in the past", slog.String("date", req.Date))
			transport.WriteError(w, http.StatusBadRequest, "date in the past", nil)
		case errors.Is(err, ErrSlotOffGrid):
			log.Warn("appointments create: slot off grid", slog.String("time", req.Time))
			transport.WriteError(w, http.StatusBadRequest, "slot outside working hours", nil)
		case errors.Is(err, ErrSlotInPast):
			log.Warn("appointments create: slot already passed", slog.String("time", req.Time))
			transport.WriteError(w, http.StatusBadRequest, "slot already passed", nil)
		case errors.Is(err, ErrSlotTaken):
			log.Warn("appointments create: slot taken", slog.String("date", req.Date), slog.String("time", req.Time))
			transport.WriteError(w, http.StatusConflict, "slot not available", nil)
		case errors.Is(err, money.ErrInvalidAmount):
			log.Error("appointments create: bad service price", slog.String("service_id", req.ServiceID))
			transport.WriteError(w, http.StatusInternalServerError, "service price error", nil)
		default:
			log.Error("appointments create: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	h.invalidateAvailability(r.Context(), appt.ServiceID, appt.Date)

	if h.mailer != nil && appt.ClientEmail != "" {
		go h.sendPendingEmail(appt)
	}

	log.Info("appointments create: pending",
		slog.String("appointment_id", appt.ID),
		slog.String("service_id", appt.ServiceID),
		slog.String("date", appt.Date),
		slog.String("time", appt.Time),
		slog.String("deposit", appt.DepositAmount),
	)
	transport.WriteJSON(w, http.StatusCreated, appt)
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		log.Warn("appointments get: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appt, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("appointments get: not found", slog.String("appointment_id", id))
			transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
			return
		}
		log.Error("appointments get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	response := map[string]interface{}{"appointment": appt}
	if due, err := money.BalanceDue(appt.ServicePrice, appt.DepositAmount); err == nil {
		response["balance_due"] = due
	}

	log.Info("appointments get: ok", slog.String("appointment_id", id))
	transport.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) LookupAppointments(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req LookupRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("appointments lookup: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("appointments lookup: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.Lookup(ctx, req.ClientPhone, req.Date)
	if err != nil {
		log.Error("appointments lookup: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("appointments lookup: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"appointments": items})
}

func (h *Handler) AdminListAppointments(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 50, 200)
	if err != nil {
		log.Warn("admin appointments list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter := ListFilter{
		Date:   strings.TrimSpace(r.URL.Query().Get("date")),
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	}
	if filter.Status != "" && !IsValidStatus(filter.Status) {
		transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"status": "oneof"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, total, err := h.service.List(ctx, filter, limit, offset)
	if err != nil {
		log.Error("admin appointments list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin appointments list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": items,
		"limit":        limit,
		"offset":       offset,
		"total":        total,
	})
}

func (h *Handler) AdminUpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		log.Warn("admin appointments status: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req AdminStatusRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("admin appointments status: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin appointments status: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appt, err := h.service.SetStatus(ctx, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			log.Warn("admin appointments status: not found", slog.String("appointment_id", id))
			transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
		case errors.Is(err, ErrInvalidTransition):
			log.Warn("admin appointments status: invalid transition",
				slog.String("appointment_id", id),
				slog.String("target", req.Status),
			)
			transport.WriteError(w, http.StatusConflict, "invalid status transition", nil)
		default:
			log.Error("admin appointments status: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	h.invalidateAvailability(r.Context(), appt.ServiceID, appt.Date)

	log.Info("admin appointments status: ok", slog.String("appointment_id", id), slog.String("status", appt.Status))
	transport.WriteJSON(w, http.StatusOK, appt)
}

// SweepExpired cancels unpaid bookings stuck in pending past the timeout.
// Triggered by an external scheduler; also runs on the internal ticker.
func (h *Handler) SweepExpired(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	count, err := h.service.Sweep(ctx)
	if err != nil {
		log.Error("sweep: database error", slog.String("error", err.Error()), slog.Int64("cancelled", count))
		transport.WriteError(w, http.StatusInternalServerError, "sweep error", nil)
		return
	}

	if count > 0 {
		_ = h.cache.DeletePrefix(r.Context(), "availability:")
	}

	log.Info("sweep: ok", slog.Int64("cancelled", count))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"cancelledCount": count,
	})
}

func (h *Handler) sendPendingEmail(appt models.Appointment) {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	if _, err := h.mailer.SendBookingPending(ctx, appt); err != nil {
		h.log.Warn("appointments email: send failed",
			slog.String("appointment_id", appt.ID),
			slog.String("email", appt.ClientEmail),
			slog.String("error", err.Error()),
		)
	}
}

func (h *Handler) invalidateAvailability(ctx context.Context, serviceID, date string) {
	_ = h.cache.Delete(ctx, "availability:"+serviceID+":"+date)
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
