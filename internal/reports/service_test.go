package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAMahlangu/Sindiswa/internal/models"
)

type fakePaidLister struct {
	items []models.Appointment
	from  time.Time
	to    time.Time
}

func (f *fakePaidLister) ListPaidBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	f.from = from
	f.to = to
	filtered := make([]models.Appointment, 0)
	for _, appt := range f.items {
		if appt.PaidAt == nil {
			continue
		}
		if !appt.PaidAt.Before(from) && appt.PaidAt.Before(to) {
			filtered = append(filtered, appt)
		}
	}
	return filtered, nil
}

func testLocation(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Africa/Johannesburg")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func paidAppt(loc *time.Location, day string, service, deposit string) models.Appointment {
	d, _ := time.ParseInLocation("2006-01-02", day, loc)
	paidAt := d.Add(10 * time.Hour)
	return models.Appointment{
		ServiceName:   service,
		DepositAmount: deposit,
		Status:        models.AppointmentStatusPaid,
		PaidAt:        &paidAt,
	}
}

func TestRevenueGroupsAndTotals(t *testing.T) {
	loc := testLocation(t)
	store := &fakePaidLister{items: []models.Appointment{
		paidAppt(loc, "2026-03-02", "Gel Overlay", "75.00"),
		paidAppt(loc, "2026-03-02", "Acrylic Full Set", "120.00"),
		paidAppt(loc, "2026-03-03", "Gel Overlay", "75.00"),
	}}
	svc := NewService(store, loc)

	report, err := svc.Revenue(context.Background(), "2026-03-01", "2026-03-07")
	if err != nil {
		t.Fatalf("Revenue error: %v", err)
	}
	if report.TotalRevenue != "270.00" {
		t.Fatalf("expected total 270.00, got %s", report.TotalRevenue)
	}
	if report.TotalBookings != 3 {
		t.Fatalf("expected 3 bookings, got %d", report.TotalBookings)
	}
	if report.AverageBookingValue != "90.00" {
		t.Fatalf("expected average 90.00, got %s", report.AverageBookingValue)
	}
	if report.RevenueByDate["2026-03-02"] != "195.00" || report.RevenueByDate["2026-03-03"] != "75.00" {
		t.Fatalf("unexpected revenue by date: %v", report.RevenueByDate)
	}
	if report.RevenueByService["Gel Overlay"] != "150.00" || report.RevenueByService["Acrylic Full Set"] != "120.00" {
		t.Fatalf("unexpected revenue by service: %v", report.RevenueByService)
	}
	if report.DateRange.StartDate != "2026-03-01" || report.DateRange.EndDate != "2026-03-07" {
		t.Fatalf("unexpected date range: %+v", report.DateRange)
	}
}

func TestRevenueEndDateIsInclusive(t *testing.T) {
	loc := testLocation(t)
	store := &fakePaidLister{items: []models.Appointment{
		paidAppt(loc, "2026-03-07", "Gel Overlay", "75.00"),
		paidAppt(loc, "2026-03-08", "Gel Overlay", "75.00"),
	}}
	svc := NewService(store, loc)

	report, err := svc.Revenue(context.Background(), "2026-03-01", "2026-03-07")
	if err != nil {
		t.Fatalf("Revenue error: %v", err)
	}
	if report.TotalBookings != 1 {
		t.Fatalf("expected only the 2026-03-07 booking, got %d", report.TotalBookings)
	}
	wantTo := time.Date(2026, 3, 8, 0, 0, 0, 0, loc)
	if !store.to.Equal(wantTo) {
		t.Fatalf("expected exclusive upper bound %v, got %v", wantTo, store.to)
	}
}

func TestRevenueEmptyRange(t *testing.T) {
	loc := testLocation(t)
	svc := NewService(&fakePaidLister{}, loc)

	report, err := svc.Revenue(context.Background(), "2026-03-01", "2026-03-07")
	if err != nil {
		t.Fatalf("Revenue error: %v", err)
	}
	if report.TotalRevenue != "0.00" || report.AverageBookingValue != "0.00" {
		t.Fatalf("expected zero amounts, got %+v", report)
	}
	if report.TotalBookings != 0 {
		t.Fatalf("expected 0 bookings, got %d", report.TotalBookings)
	}
	if len(report.RevenueByDate) != 0 || len(report.RevenueByService) != 0 {
		t.Fatalf("expected empty groups, got %+v", report)
	}
}

func TestRevenueRejectsBadRange(t *testing.T) {
	loc := testLocation(t)
	svc := NewService(&fakePaidLister{}, loc)

	if _, err := svc.Revenue(context.Background(), "2026-03-07", "2026-03-01"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for inverted range, got %v", err)
	}
	if _, err := svc.Revenue(context.Background(), "03/01/2026", "2026-03-07"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for malformed date, got %v", err)
	}
}
