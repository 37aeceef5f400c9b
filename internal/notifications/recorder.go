package notifications

import (
	"context"
	"time"

	"github.com/SAMahlangu/Sindiswa/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	EmailTypeBookingPending = "booking_pending"
	EmailTypeReceipt        = "payment_receipt"
)

// Recorder wraps the mailer and writes every attempt, success or failure, to
// the email_logs collection. The log write is best effort; an audit miss
// never fails the send.
type Recorder struct {
	mailer   *BrevoClient
	logs     *mongo.Collection
	location *time.Location
}

func NewRecorder(mailer *BrevoClient, logs *mongo.Collection, location *time.Location) *Recorder {
	if mailer == nil {
		return nil
	}
	return &Recorder{mailer: mailer, logs: logs, location: location}
}

func (r *Recorder) SendBookingPending(ctx context.Context, appt models.Appointment) (string, error) {
	messageID, err := r.mailer.SendBookingPending(ctx, appt)
	r.record(ctx, appt, EmailTypeBookingPending, messageID, err)
	return messageID, err
}

func (r *Recorder) SendPaymentReceipt(ctx context.Context, appt models.Appointment) (string, error) {
	messageID, err := r.mailer.SendPaymentReceipt(ctx, appt)
	r.record(ctx, appt, EmailTypeReceipt, messageID, err)
	return messageID, err
}

func (r *Recorder) record(ctx context.Context, appt models.Appointment, emailType, messageID string, sendErr error) {
	entry := models.EmailLog{
		ID:             uuid.NewString(),
		AppointmentID:  appt.ID,
		EmailType:      emailType,
		RecipientEmail: appt.ClientEmail,
		Status:         models.EmailStatusSent,
		MessageID:      messageID,
		SentAt:         time.Now().In(r.location),
	}
	if sendErr != nil {
		entry.Status = models.EmailStatusFailed
		entry.Error = sendErr.Error()
	}
	if r.logs != nil {
		_, _ = r.logs.InsertOne(ctx, entry)
	}
}
