package notifications

import (
	"bytes"
	"html/template"

	"github.com/SAMahlangu/Sindiswa/internal/models"
)

const bookingPendingTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hi {{.ClientName}},</p>
  <p>We have received your booking request. It is held for you while we wait
  for your deposit.</p>
  <ul>
    <li>Service: {{.ServiceName}}</li>
    <li>Date: {{.Date}}</li>
    <li>Time: {{.Time}}</li>
    <li>Deposit due: R{{.DepositAmount}}</li>
    <li>Booking reference: {{.AppointmentID}}</li>
  </ul>
  <p>Please pay the deposit within the hour to confirm your slot; unpaid
  bookings are released automatically.</p>
</body>
</html>`

type bookingPendingData struct {
	ClientName    string
	ServiceName   string
	Date          string
	Time          string
	DepositAmount string
	AppointmentID string
}

var bookingPendingTmpl = template.Must(template.New("bookingPending").Parse(bookingPendingTemplate))

func buildBookingPendingHTML(appt models.Appointment) (string, error) {
	data := bookingPendingData{
		ClientName:    appt.ClientName,
		ServiceName:   appt.ServiceName,
		Date:          appt.Date,
		Time:          appt.Time,
		DepositAmount: appt.DepositAmount,
		AppointmentID: appt.ID,
	}

	var buf bytes.Buffer
	if err := bookingPendingTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
