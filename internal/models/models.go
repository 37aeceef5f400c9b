package models

import "time"

const (
	AppointmentStatusPending   = "pending"
	AppointmentStatusPaid      = "paid"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"

	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"

	EmailStatusSent   = "sent"
	EmailStatusFailed = "failed"

	UserRoleAdmin = "admin"
)

type Service struct {
	ID              string    `bson:"_id,omitempty" json:"id"`
	Name            string    `bson:"name" json:"name"`
	Description     string    `bson:"description" json:"description"`
	Price           string    `bson:"price" json:"price"`
	DurationMinutes int       `bson:"duration_minutes" json:"duration_minutes"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// Appointment is the aggregate root of the booking workflow. ServicePrice and
// DepositAmount are snapshots taken at booking time; later edits to the
// service never change them.
type Appointment struct {
	ID               string     `bson:"_id,omitempty" json:"id"`
	ServiceID        string     `bson:"service_id" json:"service_id"`
	ServiceName      string     `bson:"service_name" json:"service_name"`
	ClientName       string     `bson:"client_name" json:"client_name"`
	ClientPhone      string     `bson:"client_phone" json:"client_phone"`
	ClientEmail      string     `bson:"client_email,omitempty" json:"client_email,omitempty"`
	Date             string     `bson:"date" json:"date"`
	Time             string     `bson:"time" json:"time"`
	DurationMinutes  int        `bson:"duration_minutes" json:"duration_minutes"`
	ServicePrice     string     `bson:"service_price" json:"service_price"`
	DepositAmount    string     `bson:"deposit_amount" json:"deposit_amount"`
	Status           string     `bson:"status" json:"status"`
	PayfastReference string     `bson:"payfast_reference,omitempty" json:"payfast_reference,omitempty"`
	PaidAt           *time.Time `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	CreatedAt        time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at" json:"updated_at"`
}

// PaymentLog is an append-only audit record. One row is written per gateway
// delivery, including redeliveries that did not change appointment state.
type PaymentLog struct {
	ID               string            `bson:"_id,omitempty" json:"id"`
	AppointmentID    string            `bson:"appointment_id" json:"appointment_id"`
	PayfastReference string            `bson:"payfast_reference" json:"payfast_reference"`
	Amount           string            `bson:"amount" json:"amount"`
	Currency         string            `bson:"currency" json:"currency"`
	Status           string            `bson:"status" json:"status"`
	ResponseData     map[string]string `bson:"response_data" json:"response_data"`
	CreatedAt        time.Time         `bson:"created_at" json:"created_at"`
}

type EmailLog struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	AppointmentID  string    `bson:"appointment_id" json:"appointment_id"`
	EmailType      string    `bson:"email_type" json:"email_type"`
	RecipientEmail string    `bson:"recipient_email" json:"recipient_email"`
	Status         string    `bson:"status" json:"status"`
	MessageID      string    `bson:"message_id,omitempty" json:"message_id,omitempty"`
	Error          string    `bson:"error,omitempty" json:"error,omitempty"`
	SentAt         time.Time `bson:"sent_at" json:"sent_at"`
}

type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Username     string    `bson:"username" json:"username"`
	Email        string    `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}
