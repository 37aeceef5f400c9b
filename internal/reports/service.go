package reports

import (
	"context"
	"errors"
	"time"

	"github.com/SAMahlangu/Sindiswa/internal/models"
	"github.com/SAMahlangu/Sindiswa/internal/money"
	"github.com/SAMahlangu/Sindiswa/internal/schedule"

	"github.com/shopspring/decimal"
)

var ErrInvalidRange = errors.New("invalid date range")

// PaidLister is the read-side slice of the appointment store the revenue
// rollup needs. booking.MongoRepository implements it.
type PaidLister interface {
	ListPaidBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
}

type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type Revenue struct {
	TotalRevenue        string            `json:"totalRevenue"`
	TotalBookings       int               `json:"totalBookings"`
	AverageBookingValue string            `json:"averageBookingValue"`
	RevenueByDate       map[string]string `json:"revenueByDate"`
	RevenueByService    map[string]string `json:"revenueByService"`
	DateRange           DateRange         `json:"dateRange"`
}

type Service struct {
	store    PaidLister
	location *time.Location
}

func NewService(store PaidLister, location *time.Location) *Service {
	return &Service{store: store, location: location}
}

// Revenue sums paid appointments' deposits over [startDate, endDate],
// inclusive on both calendar days, grouped by pay date and by service name.
// All arithmetic is decimal; deposits were stored as exact 2dp strings.
func (s *Service) Revenue(ctx context.Context, startDate, endDate string) (Revenue, error) {
	from, err := schedule.ParseDate(startDate, s.location)
	if err != nil {
		return Revenue{}, ErrInvalidRange
	}
	end, err := schedule.ParseDate(endDate, s.location)
	if err != nil {
		return Revenue{}, ErrInvalidRange
	}
	if end.Before(from) {
		return Revenue{}, ErrInvalidRange
	}
	to := end.AddDate(0, 0, 1)

	items, err := s.store.ListPaidBetween(ctx, from, to)
	if err != nil {
		return Revenue{}, err
	}

	total := decimal.Zero
	byDate := make(map[string]decimal.Decimal)
	byService := make(map[string]decimal.Decimal)

	for _, appt := range items {
		deposit, err := money.Parse(appt.DepositAmount)
		if err != nil {
			continue
		}
		total = total.Add(deposit)

		if appt.PaidAt != nil {
			day := appt.PaidAt.In(s.location).Format("2006-01-02")
			byDate[day] = byDate[day].Add(deposit)
		}

		name := appt.ServiceName
		if name == "" {
			name = "Unknown"
		}
		byService[name] = byService[name].Add(deposit)
	}

	report := Revenue{
		TotalRevenue:        money.Format(total),
		TotalBookings:       len(items),
		AverageBookingValue: "0.00",
		RevenueByDate:       formatGroups(byDate),
		RevenueByService:    formatGroups(byService),
		DateRange:           DateRange{StartDate: startDate, EndDate: endDate},
	}
	if len(items) > 0 {
		report.AverageBookingValue = money.Format(total.Div(decimal.NewFromInt(int64(len(items)))).Round(2))
	}
	return report, nil
}

func formatGroups(groups map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(groups))
	for k, v := range groups {
		out[k] = money.Format(v)
	}
	return out
}
