package payments

import (
	"context"

	"github.com/SAMahlangu/Sindiswa/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// LogRepository appends to the payment audit trail. Entries are never updated
// or deleted.
type LogRepository interface {
	Append(ctx context.Context, entry models.PaymentLog) error
}

type MongoLogRepository struct {
	col *mongo.Collection
}

func NewLogRepository(col *mongo.Collection) *MongoLogRepository {
	return &MongoLogRepository{col: col}
}

func (r *MongoLogRepository) Append(ctx context.Context, entry models.PaymentLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := r.col.InsertOne(ctx, entry)
	return err
}
