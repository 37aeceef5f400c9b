package reports

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SAMahlangu/Sindiswa/internal/httpx"
	"github.com/SAMahlangu/Sindiswa/internal/middleware"
	"github.com/SAMahlangu/Sindiswa/internal/transport"
	"github.com/SAMahlangu/Sindiswa/internal/validation"
)

type RevenueRequest struct {
	StartDate string `json:"startDate" validate:"required,date"`
	EndDate   string `json:"endDate" validate:"required,date"`
}

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{service: service, val: val, log: log}
}

func (h *Handler) Revenue(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req RevenueRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("reports revenue: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("reports revenue: validation error")
		transport.WriteError(w, http.StatusBadRequest, "missing startDate or endDate", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	report, err := h.service.Revenue(ctx, req.StartDate, req.EndDate)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) {
			log.Warn("reports revenue: invalid range",
				slog.String("start", req.StartDate),
				slog.String("end", req.EndDate),
			)
			transport.WriteError(w, http.StatusBadRequest, "invalid date range", nil)
			return
		}
		log.Error("reports revenue: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("reports revenue: ok",
		slog.String("start", req.StartDate),
		slog.String("end", req.EndDate),
		slog.Int("bookings", report.TotalBookings),
	)
	transport.WriteJSON(w, http.StatusOK, report)
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
