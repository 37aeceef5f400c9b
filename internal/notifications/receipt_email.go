package notifications

import (
	"bytes"
	"html/template"

	"github.com/SAMahlangu/Sindiswa/internal/models"
	"github.com/SAMahlangu/Sindiswa/internal/money"
)

const paymentReceiptTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hi {{.ClientName}},</p>
  <p>Your deposit has been received and your appointment is confirmed.</p>
  <ul>
    <li>Service: {{.ServiceName}}</li>
    <li>Date: {{.Date}}</li>
    <li>Time: {{.Time}}</li>
    <li>Deposit paid: R{{.DepositAmount}}</li>
    <li>Balance due at the salon: R{{.BalanceDue}}</li>
    <li>Booking reference: {{.AppointmentID}}</li>
  </ul>
  <p>Please arrive 5 minutes early. The balance is payable at your appointment.</p>
  <p>See you soon!</p>
</body>
</html>`

type receiptData struct {
	ClientName    string
	ServiceName   string
	Date          string
	Time          string
	DepositAmount string
	BalanceDue    string
	AppointmentID string
}

var receiptTmpl = template.Must(template.New("paymentReceipt").Parse(paymentReceiptTemplate))

func buildPaymentReceiptHTML(appt models.Appointment) (string, error) {
	balance, err := money.BalanceDue(appt.ServicePrice, appt.DepositAmount)
	if err != nil {
		balance = ""
	}

	data := receiptData{
		ClientName:    appt.ClientName,
		ServiceName:   appt.ServiceName,
		Date:          appt.Date,
		Time:          appt.Time,
		DepositAmount: appt.DepositAmount,
		BalanceDue:    balance,
		AppointmentID: appt.ID,
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
