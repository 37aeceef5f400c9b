package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SAMahlangu/Sindiswa/internal/models"
	"github.com/SAMahlangu/Sindiswa/internal/money"
	"github.com/SAMahlangu/Sindiswa/internal/schedule"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrServiceNotFound   = errors.New("service not found")
	ErrSlotTaken         = errors.New("slot not available")
	ErrSlotOffGrid       = errors.New("slot outside working hours")
	ErrDateInPast        = errors.New("date in the past")
	ErrSlotInPast        = errors.New("slot already passed")
	ErrInvalidTransition = errors.New("invalid status transition")
)

const sweepBatchSize = 200

type CreateRequest struct {
	ServiceID   string `json:"service_id" validate:"required"`
	ClientName  string `json:"client_name" validate:"required"`
	ClientPhone string `json:"client_phone" validate:"required,phone"`
	ClientEmail string `json:"client_email" validate:"omitempty,email"`
	Date        string `json:"date" validate:"required,date"`
	Time        string `json:"time" validate:"required,clock"`
}

type Availability struct {
	ServiceID string   `json:"service_id"`
	Date      string   `json:"date"`
	Duration  int      `json:"duration"`
	Timezone  string   `json:"timezone"`
	Slots     []string `json:"slots"`
}

type Service struct {
	repo           Repository
	window         schedule.Window
	location       *time.Location
	pendingTimeout time.Duration
	now            func() time.Time
}

func NewService(repo Repository, window schedule.Window, location *time.Location, pendingTimeout time.Duration) *Service {
	return &Service{
		repo:           repo,
		window:         window,
		location:       location,
		pendingTimeout: pendingTimeout,
		now:            time.Now,
	}
}

// Availability computes the open slot grid for a service on a date. A storage
// failure fails the call; it never degrades to "everything free".
func (s *Service) Availability(ctx context.Context, serviceID, date string) (Availability, error) {
	past, err := schedule.IsDatePast(date, s.location, s.now())
	if err != nil {
		return Availability{}, err
	}
	if past {
		return Availability{}, ErrDateInPast
	}

	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Availability{}, ErrServiceNotFound
		}
		return Availability{}, err
	}

	slots, err := schedule.Generate(s.window, svc.DurationMinutes)
	if err != nil {
		return Availability{}, err
	}

	booked, err := s.repo.BookedTimes(ctx, serviceID, date)
	if err != nil {
		return Availability{}, err
	}
	slots = schedule.FilterBooked(slots, booked)

	if schedule.IsToday(date, s.location, s.now()) {
		slots, err = schedule.FilterPast(date, slots, s.location, s.now())
		if err != nil {
			return Availability{}, err
		}
	}

	return Availability{
		ServiceID: serviceID,
		Date:      date,
		Duration:  svc.DurationMinutes,
		Timezone:  s.location.String(),
		Slots:     slots,
	}, nil
}

// Create books a pending appointment, snapshotting the service price and the
// 30% deposit at this moment. The availability pre-check is advisory; the
// unique index behind InsertAppointment is what actually serializes two
// clients racing for the same slot.
func (s *Service) Create(ctx context.Context, req CreateRequest) (models.Appointment, error) {
	now := s.now()

	past, err := schedule.IsDatePast(req.Date, s.location, now)
	if err != nil {
		return models.Appointment{}, err
	}
	if past {
		return models.Appointment{}, ErrDateInPast
	}

	svc, err := s.repo.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Appointment{}, ErrServiceNotFound
		}
		return models.Appointment{}, err
	}

	onGrid, err := schedule.Contains(s.window, svc.DurationMinutes, req.Time)
	if err != nil {
		return models.Appointment{}, err
	}
	if !onGrid {
		return models.Appointment{}, ErrSlotOffGrid
	}

	if schedule.IsToday(req.Date, s.location, now) {
		pastSlot, err := schedule.IsSlotPast(req.Date, req.Time, s.location, now)
		if err != nil {
			return models.Appointment{}, err
		}
		if pastSlot {
			return models.Appointment{}, ErrSlotInPast
		}
	}

	booked, err := s.repo.BookedTimes(ctx, req.ServiceID, req.Date)
	if err != nil {
		return models.Appointment{}, err
	}
	if booked[req.Time] {
		return models.Appointment{}, ErrSlotTaken
	}

	deposit, err := money.Deposit(svc.Price)
	if err != nil {
		return models.Appointment{}, err
	}

	appt := models.Appointment{
		ID:              primitive.NewObjectID().Hex(),
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		ClientName:      strings.TrimSpace(req.ClientName),
		ClientPhone:     strings.TrimSpace(req.ClientPhone),
		ClientEmail:     strings.TrimSpace(req.ClientEmail),
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: svc.DurationMinutes,
		ServicePrice:    svc.Price,
		DepositAmount:   deposit,
		Status:          models.AppointmentStatusPending,
		CreatedAt:       now.In(s.location),
		UpdatedAt:       now.In(s.location),
	}

	if err := s.repo.InsertAppointment(ctx, appt); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Appointment{}, ErrSlotTaken
		}
		return models.Appointment{}, err
	}
	return appt, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Appointment{}, ErrNotFound
		}
		return models.Appointment{}, err
	}
	return appt, nil
}

func (s *Service) Lookup(ctx context.Context, phone, date string) ([]models.Appointment, error) {
	return s.repo.FindByPhoneDate(ctx, strings.TrimSpace(phone), date)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Appointment, int64, error) {
	items, err := s.repo.ListAppointments(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountAppointments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SetStatus applies an operator transition (complete a paid appointment,
// cancel a pending or paid one) under the state machine's guards. Attempts
// out of a terminal status are rejected with ErrInvalidTransition and change
// nothing.
func (s *Service) SetStatus(ctx context.Context, id, target string) (models.Appointment, error) {
	if !IsValidStatus(target) {
		return models.Appointment{}, ErrInvalidTransition
	}

	appt, err := s.Get(ctx, id)
	if err != nil {
		return models.Appointment{}, err
	}
	if !CanTransition(appt.Status, target) {
		return models.Appointment{}, ErrInvalidTransition
	}

	now := s.now().In(s.location)
	matched, err := s.repo.UpdateStatus(ctx, appt.ID, []string{appt.Status}, target, now)
	if err != nil {
		return models.Appointment{}, err
	}
	if !matched {
		// Lost a race with the webhook or the sweeper.
		return models.Appointment{}, ErrInvalidTransition
	}

	appt.Status = target
	appt.UpdatedAt = now
	return appt, nil
}

// Sweep cancels pending appointments older than the timeout, in bounded
// batches. The conditional update makes it safe to run concurrently with
// itself and with payment reconciliation.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.pendingTimeout)

	var cancelled int64
	for {
		ids, err := s.repo.FindPendingIDsOlderThan(ctx, cutoff, sweepBatchSize)
		if err != nil {
			return cancelled, err
		}
		if len(ids) == 0 {
			return cancelled, nil
		}

		n, err := s.repo.CancelPendingByIDs(ctx, ids, s.now().In(s.location))
		if err != nil {
			return cancelled, err
		}
		cancelled += n

		if len(ids) < sweepBatchSize {
			return cancelled, nil
		}
	}
}

// MarkPaid is used by payment reconciliation; true means this call performed
// the pending→paid transition, false that someone else already settled the
// appointment's fate.
func (s *Service) MarkPaid(ctx context.Context, id, reference string, paidAt time.Time) (bool, error) {
	return s.repo.MarkPaid(ctx, id, reference, paidAt)
}

// CancelPending is the failed-payment path: pending→cancelled, no-op when the
// appointment is already terminal or paid.
func (s *Service) CancelPending(ctx context.Context, id string) (bool, error) {
	return s.repo.UpdateStatus(ctx, id, []string{models.AppointmentStatusPending}, models.AppointmentStatusCancelled, s.now().In(s.location))
}
