package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/SAMahlangu/Sindiswa/internal/httpx"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func decodeJSON(r *http.Request, v interface{}) error {
	return httpx.DecodeJSON(r.Body, v)
}

func validationDetails(errs validator.ValidationErrors) map[string]string {
	return httpx.ValidationDetails(errs)
}

// normalizeID rewrites mongo's _id into the id key the frontend expects.
func normalizeID(doc bson.M) map[string]interface{} {
	if id, ok := doc["_id"]; ok {
		switch v := id.(type) {
		case primitive.ObjectID:
			doc["id"] = v.Hex()
		default:
			doc["id"] = v
		}
		delete(doc, "_id")
	}
	return doc
}

func writeCachedJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

func encodeJSON(payload interface{}) ([]byte, error) {
	return json.Marshal(payload)
}
