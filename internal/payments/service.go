package payments

import (
	"context"
	"errors"
	"time"

	"github.com/SAMahlangu/Sindiswa/internal/booking"
	"github.com/SAMahlangu/Sindiswa/internal/models"
	"github.com/SAMahlangu/Sindiswa/internal/money"
)

// Result classifies what one notification delivery did to the appointment.
// Only ResultPaid and ResultCancelled mutated state; everything else is an
// acknowledged no-op.
type Result string

const (
	ResultPaid               Result = "paid"
	ResultAlreadyPaid        Result = "already_paid"
	ResultCancelled          Result = "cancelled"
	ResultNoop               Result = "noop"
	ResultIgnored            Result = "ignored"
	ResultUnknownAppointment Result = "unknown_appointment"
)

// Bookings is the slice of the appointment lifecycle that reconciliation
// needs. booking.Service implements it.
type Bookings interface {
	Get(ctx context.Context, id string) (models.Appointment, error)
	MarkPaid(ctx context.Context, id, reference string, paidAt time.Time) (bool, error)
	CancelPending(ctx context.Context, id string) (bool, error)
}

type Service struct {
	bookings Bookings
	logs     LogRepository
	location *time.Location
	now      func() time.Time
}

func NewService(bookings Bookings, logs LogRepository, location *time.Location) *Service {
	return &Service{
		bookings: bookings,
		logs:     logs,
		location: location,
		now:      time.Now,
	}
}

// Reconcile applies an authenticated notification to the appointment
// lifecycle exactly once. Redeliveries and races with the sweeper resolve to
// no-ops; each success/failed delivery still gets its own audit entry.
func (s *Service) Reconcile(ctx context.Context, n Notification) (Result, models.Appointment, error) {
	if n.Outcome == OutcomeUnknown {
		return ResultIgnored, models.Appointment{}, nil
	}

	appt, err := s.bookings.Get(ctx, n.AppointmentID)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			if logErr := s.appendLog(ctx, n, models.PaymentStatusFailed); logErr != nil {
				return ResultUnknownAppointment, models.Appointment{}, logErr
			}
			return ResultUnknownAppointment, models.Appointment{}, nil
		}
		return ResultNoop, models.Appointment{}, err
	}

	switch n.Outcome {
	case OutcomeComplete:
		paidAt := s.now().In(s.location)
		did, err := s.bookings.MarkPaid(ctx, appt.ID, n.Reference, paidAt)
		if err != nil {
			return ResultNoop, appt, err
		}
		if logErr := s.appendLog(ctx, n, models.PaymentStatusSuccess); logErr != nil {
			return ResultNoop, appt, logErr
		}
		if did {
			appt.Status = models.AppointmentStatusPaid
			appt.PayfastReference = n.Reference
			appt.PaidAt = &paidAt
			return ResultPaid, appt, nil
		}
		// CAS missed: someone settled this appointment first. Re-read to tell
		// a gateway redelivery (already paid, fine) from a lost race.
		current, err := s.bookings.Get(ctx, appt.ID)
		if err != nil {
			return ResultNoop, appt, err
		}
		if current.Status == models.AppointmentStatusPaid {
			return ResultAlreadyPaid, current, nil
		}
		return ResultNoop, current, nil

	case OutcomeFailed:
		did, err := s.bookings.CancelPending(ctx, appt.ID)
		if err != nil {
			return ResultNoop, appt, err
		}
		if logErr := s.appendLog(ctx, n, models.PaymentStatusFailed); logErr != nil {
			return ResultNoop, appt, logErr
		}
		if did {
			appt.Status = models.AppointmentStatusCancelled
			return ResultCancelled, appt, nil
		}
		return ResultNoop, appt, nil
	}

	return ResultIgnored, appt, nil
}

// AmountMatches checks the notification's gross amount against the deposit
// the appointment was booked with. A mismatch is logged upstream, not
// rejected; the signature already authenticated the notification.
func AmountMatches(n Notification, appt models.Appointment) bool {
	if n.AmountGross == "" {
		return false
	}
	return money.Equal(n.AmountGross, appt.DepositAmount)
}

func (s *Service) appendLog(ctx context.Context, n Notification, status string) error {
	return s.logs.Append(ctx, models.PaymentLog{
		AppointmentID:    n.AppointmentID,
		PayfastReference: n.Reference,
		Amount:           n.AmountGross,
		Currency:         money.Currency,
		Status:           status,
		ResponseData:     n.Fields,
		CreatedAt:        s.now().In(s.location),
	})
}
