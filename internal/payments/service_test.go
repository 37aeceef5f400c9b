package payments

import (
	"context"
	"testing"
	"time"

	"github.com/SAMahlangu/Sindiswa/internal/booking"
	"github.com/SAMahlangu/Sindiswa/internal/models"
)

type fakeBookings struct {
	appointments map[string]*models.Appointment
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{appointments: make(map[string]*models.Appointment)}
}

func (f *fakeBookings) Get(ctx context.Context, id string) (models.Appointment, error) {
	appt, ok := f.appointments[id]
	if !ok {
		return models.Appointment{}, booking.ErrNotFound
	}
	return *appt, nil
}

func (f *fakeBookings) MarkPaid(ctx context.Context, id, reference string, paidAt time.Time) (bool, error) {
	appt, ok := f.appointments[id]
	if !ok || appt.Status != models.AppointmentStatusPending {
		return false, nil
	}
	appt.Status = models.AppointmentStatusPaid
	appt.PayfastReference = reference
	appt.PaidAt = &paidAt
	return true, nil
}

func (f *fakeBookings) CancelPending(ctx context.Context, id string) (bool, error) {
	appt, ok := f.appointments[id]
	if !ok || appt.Status != models.AppointmentStatusPending {
		return false, nil
	}
	appt.Status = models.AppointmentStatusCancelled
	return true, nil
}

type fakeLogs struct {
	entries []models.PaymentLog
}

func (f *fakeLogs) Append(ctx context.Context, entry models.PaymentLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

func reconcileFixture(t *testing.T) (*Service, *fakeBookings, *fakeLogs) {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Johannesburg")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	bookings := newFakeBookings()
	logs := &fakeLogs{}
	svc := NewService(bookings, logs, loc)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, loc) }
	return svc, bookings, logs
}

func completeNotification(appointmentID string) Notification {
	return Notification{
		AppointmentID: appointmentID,
		Reference:     "pf-123",
		AmountGross:   "75.00",
		Outcome:       OutcomeComplete,
		RawStatus:     "COMPLETE",
		Fields:        map[string]string{"custom_str1": appointmentID},
	}
}

func TestReconcileComplete(t *testing.T) {
	svc, bookings, logs := reconcileFixture(t)
	bookings.appointments["a1"] = &models.Appointment{
		ID: "a1", Status: models.AppointmentStatusPending, DepositAmount: "75.00",
	}

	result, appt, err := svc.Reconcile(context.Background(), completeNotification("a1"))
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if result != ResultPaid {
		t.Fatalf("expected ResultPaid, got %s", result)
	}
	if appt.Status != models.AppointmentStatusPaid {
		t.Fatalf("expected paid, got %s", appt.Status)
	}
	if appt.PayfastReference != "pf-123" {
		t.Fatalf("expected reference pf-123, got %s", appt.PayfastReference)
	}
	if appt.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}
	if len(logs.entries) != 1 || logs.entries[0].Status != models.PaymentStatusSuccess {
		t.Fatalf("expected one success audit entry, got %+v", logs.entries)
	}
}

func TestReconcileRedeliveryIsIdempotent(t *testing.T) {
	svc, bookings, logs := reconcileFixture(t)
	bookings.appointments["a1"] = &models.Appointment{
		ID: "a1", Status: models.AppointmentStatusPending, DepositAmount: "75.00",
	}

	n := completeNotification("a1")
	if _, _, err := svc.Reconcile(context.Background(), n); err != nil {
		t.Fatalf("first Reconcile error: %v", err)
	}
	firstPaidAt := *bookings.appointments["a1"].PaidAt

	result, appt, err := svc.Reconcile(context.Background(), n)
	if err != nil {
		t.Fatalf("second Reconcile error: %v", err)
	}
	if result != ResultAlreadyPaid {
		t.Fatalf("expected ResultAlreadyPaid, got %s", result)
	}
	if appt.Status != models.AppointmentStatusPaid {
		t.Fatalf("expected paid, got %s", appt.Status)
	}
	if !bookings.appointments["a1"].PaidAt.Equal(firstPaidAt) {
		t.Fatalf("expected paid_at untouched by redelivery")
	}
	// Every delivery gets an audit entry even when nothing changed.
	if len(logs.entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(logs.entries))
	}
}

func TestReconcileFailedCancelsPending(t *testing.T) {
	svc, bookings, logs := reconcileFixture(t)
	bookings.appointments["a1"] = &models.Appointment{
		ID: "a1", Status: models.AppointmentStatusPending, DepositAmount: "75.00",
	}

	n := completeNotification("a1")
	n.Outcome = OutcomeFailed
	n.RawStatus = "FAILED"

	result, appt, err := svc.Reconcile(context.Background(), n)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if result != ResultCancelled {
		t.Fatalf("expected ResultCancelled, got %s", result)
	}
	if appt.Status != models.AppointmentStatusCancelled {
		t.Fatalf("expected cancelled, got %s", appt.Status)
	}
	if len(logs.entries) != 1 || logs.entries[0].Status != models.PaymentStatusFailed {
		t.Fatalf("expected one failed audit entry, got %+v", logs.entries)
	}
}

func TestReconcileFailedAfterPaidIsNoop(t *testing.T) {
	svc, bookings, _ := reconcileFixture(t)
	bookings.appointments["a1"] = &models.Appointment{
		ID: "a1", Status: models.AppointmentStatusPaid, DepositAmount: "75.00",
	}

	n := completeNotification("a1")
	n.Outcome = OutcomeFailed

	result, _, err := svc.Reconcile(context.Background(), n)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if result != ResultNoop {
		t.Fatalf("expected ResultNoop, got %s", result)
	}
	if bookings.appointments["a1"].Status != models.AppointmentStatusPaid {
		t.Fatalf("expected paid status preserved")
	}
}

func TestReconcileCompleteAfterSweepIsNoop(t *testing.T) {
	svc, bookings, _ := reconcileFixture(t)
	bookings.appointments["a1"] = &models.Appointment{
		ID: "a1", Status: models.AppointmentStatusCancelled, DepositAmount: "75.00",
	}

	result, _, err := svc.Reconcile(context.Background(), completeNotification("a1"))
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if result != ResultNoop {
		t.Fatalf("expected ResultNoop, got %s", result)
	}
	if bookings.appointments["a1"].Status != models.AppointmentStatusCancelled {
		t.Fatalf("expected cancelled status preserved")
	}
}

func TestReconcileUnknownAppointment(t *testing.T) {
	svc, _, logs := reconcileFixture(t)

	result, _, err := svc.Reconcile(context.Background(), completeNotification("missing"))
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if result != ResultUnknownAppointment {
		t.Fatalf("expected ResultUnknownAppointment, got %s", result)
	}
	if len(logs.entries) != 1 || logs.entries[0].Status != models.PaymentStatusFailed {
		t.Fatalf("expected one failed audit entry, got %+v", logs.entries)
	}
}

func TestReconcileUnknownOutcomeIgnored(t *testing.T) {
	svc, bookings, logs := reconcileFixture(t)
	bookings.appointments["a1"] = &models.Appointment{
		ID: "a1", Status: models.AppointmentStatusPending,
	}

	n := completeNotification("a1")
	n.Outcome = OutcomeUnknown
	n.RawStatus = "PENDING"

	result, _, err := svc.Reconcile(context.Background(), n)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if result != ResultIgnored {
		t.Fatalf("expected ResultIgnored, got %s", result)
	}
	if bookings.appointments["a1"].Status != models.AppointmentStatusPending {
		t.Fatalf("expected pending status preserved")
	}
	if len(logs.entries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(logs.entries))
	}
}

func TestAmountMatches(t *testing.T) {
	appt := models.Appointment{DepositAmount: "75.00"}
	if !AmountMatches(Notification{AmountGross: "75.00"}, appt) {
		t.Fatalf("expected exact match")
	}
	if !AmountMatches(Notification{AmountGross: "75.0"}, appt) {
		t.Fatalf("expected numeric match regardless of formatting")
	}
	if AmountMatches(Notification{AmountGross: "80.00"}, appt) {
		t.Fatalf("expected mismatch")
	}
	if AmountMatches(Notification{}, appt) {
		t.Fatalf("expected empty amount to mismatch")
	}
}
