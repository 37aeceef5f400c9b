package booking

import (
	"context"
	"time"

	"github.com/SAMahlangu/Sindiswa/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ListFilter struct {
	Date   string
	Status string
}

// Repository is the storage port for the appointment aggregate. Every status
// change goes through a conditional update that carries the expected current
// status in its filter; callers treat zero matched documents as a lost race,
// never as an error.
type Repository interface {
	GetService(ctx context.Context, id string) (models.Service, error)
	InsertAppointment(ctx context.Context, appt models.Appointment) error
	GetAppointment(ctx context.Context, id string) (models.Appointment, error)
	BookedTimes(ctx context.Context, serviceID, date string) (map[string]bool, error)
	FindByPhoneDate(ctx context.Context, phone, date string) ([]models.Appointment, error)
	ListAppointments(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Appointment, error)
	CountAppointments(ctx context.Context, filter ListFilter) (int64, error)
	UpdateStatus(ctx context.Context, id string, from []string, to string, now time.Time) (bool, error)
	MarkPaid(ctx context.Context, id, reference string, paidAt time.Time) (bool, error)
	FindPendingIDsOlderThan(ctx context.Context, cutoff time.Time, limit int64) ([]string, error)
	CancelPendingByIDs(ctx context.Context, ids []string, now time.Time) (int64, error)
	ListPaidBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
}

type MongoRepository struct {
	appointments *mongo.Collection
	services     *mongo.Collection
}

func NewRepository(appointments, services *mongo.Collection) *MongoRepository {
	return &MongoRepository{appointments: appointments, services: services}
}

func (r *MongoRepository) GetService(ctx context.Context, id string) (models.Service, error) {
	var svc models.Service
	if err := r.services.FindOne(ctx, bson.M{"_id": id}).Decode(&svc); err != nil {
		return models.Service{}, err
	}
	return svc, nil
}

func (r *MongoRepository) InsertAppointment(ctx context.Context, appt models.Appointment) error {
	_, err := r.appointments.InsertOne(ctx, appt)
	return err
}

func (r *MongoRepository) GetAppointment(ctx context.Context, id string) (models.Appointment, error) {
	var appt models.Appointment
	if err := r.appointments.FindOne(ctx, bson.M{"_id": id}).Decode(&appt); err != nil {
		return models.Appointment{}, err
	}
	return appt, nil
}

// BookedTimes returns the slot labels claimed for the (service, date) pair.
// Only pending and paid appointments block a slot; cancelled and completed
// ones never do.
func (r *MongoRepository) BookedTimes(ctx context.Context, serviceID, date string) (map[string]bool, error) {
	filter := bson.M{
		"service_id": serviceID,
		"date":       date,
		"status":     bson.M{"$in": bson.A{models.AppointmentStatusPending, models.AppointmentStatusPaid}},
	}
	cursor, err := r.appointments.Find(ctx, filter, options.Find().SetProjection(bson.M{"time": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	booked := make(map[string]bool)
	for cursor.Next(ctx) {
		var doc struct {
			Time string `bson:"time"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		if doc.Time != "" {
			booked[doc.Time] = true
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return booked, nil
}

func (r *MongoRepository) FindByPhoneDate(ctx context.Context, phone, date string) ([]models.Appointment, error) {
	filter := bson.M{"client_phone": phone, "date": date}
	cursor, err := r.appointments.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "time", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeAppointments(ctx, cursor)
}

func (r *MongoRepository) ListAppointments(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Appointment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "time", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.appointments.Find(ctx, r.filterToBSON(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeAppointments(ctx, cursor)
}

func (r *MongoRepository) CountAppointments(ctx context.Context, filter ListFilter) (int64, error) {
	return r.appointments.CountDocuments(ctx, r.filterToBSON(filter))
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, id string, from []string, to string, now time.Time) (bool, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": now}}
	res, err := r.appointments.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// MarkPaid is the compare-and-set half of payment reconciliation: it only
// fires on a still-pending appointment, so a redelivered notification or a
// racing sweep leaves paid_at and the gateway reference untouched.
func (r *MongoRepository) MarkPaid(ctx context.Context, id, reference string, paidAt time.Time) (bool, error) {
	filter := bson.M{"_id": id, "status": models.AppointmentStatusPending}
	update := bson.M{"$set": bson.M{
		"status":            models.AppointmentStatusPaid,
		"payfast_reference": reference,
		"paid_at":           paidAt,
		"updated_at":        paidAt,
	}}
	res, err := r.appointments.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoRepository) FindPendingIDsOlderThan(ctx context.Context, cutoff time.Time, limit int64) ([]string, error) {
	filter := bson.M{
		"status":     models.AppointmentStatusPending,
		"created_at": bson.M{"$lt": cutoff},
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetLimit(limit)
	cursor, err := r.appointments.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ids := make([]string, 0)
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *MongoRepository) CancelPendingByIDs(ctx context.Context, ids []string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	// The status filter makes this safe against a webhook racing the sweep:
	// an appointment paid in between simply drops out of the match set.
	filter := bson.M{
		"_id":    bson.M{"$in": ids},
		"status": models.AppointmentStatusPending,
	}
	update := bson.M{"$set": bson.M{"status": models.AppointmentStatusCancelled, "updated_at": now}}
	res, err := r.appointments.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoRepository) ListPaidBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	filter := bson.M{
		"status":  models.AppointmentStatusPaid,
		"paid_at": bson.M{"$gte": from, "$lt": to},
	}
	cursor, err := r.appointments.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "paid_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeAppointments(ctx, cursor)
}

func (r *MongoRepository) filterToBSON(filter ListFilter) bson.M {
	query := bson.M{}
	if filter.Date != "" {
		query["date"] = filter.Date
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}

func decodeAppointments(ctx context.Context, cursor *mongo.Cursor) ([]models.Appointment, error) {
	items := make([]models.Appointment, 0)
	for cursor.Next(ctx) {
		var appt models.Appointment
		if err := cursor.Decode(&appt); err != nil {
			return nil, err
		}
		items = append(items, appt)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
