package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/SAMahlangu/Sindiswa/internal/auth"
	"github.com/SAMahlangu/Sindiswa/internal/config"
	"github.com/SAMahlangu/Sindiswa/internal/db"
	"github.com/SAMahlangu/Sindiswa/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type seedService struct {
	Name            string
	Description     string
	Price           string
	DurationMinutes int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	services := []seedService{
		{Name: "Gel Overlay", Description: "Natural nail gel overlay with a glossy finish.", Price: "250.00", DurationMinutes: 60},
		{Name: "Acrylic Full Set", Description: "Sculpted acrylic extensions, shaped and polished.", Price: "400.00", DurationMinutes: 90},
		{Name: "Acrylic Fill", Description: "Refill for grown-out acrylic sets.", Price: "280.00", DurationMinutes: 60},
		{Name: "Gel Manicure", Description: "Classic manicure finished with gel polish.", Price: "200.00", DurationMinutes: 45},
		{Name: "Pedicure", Description: "Soak, exfoliation and polish for tired feet.", Price: "220.00", DurationMinutes: 60},
		{Name: "Nail Art Add-On", Description: "Hand-painted designs, charms and chrome.", Price: "80.00", DurationMinutes: 30},
		{Name: "Soak Off", Description: "Gentle removal of gel or acrylic.", Price: "100.00", DurationMinutes: 30},
	}

	for _, svc := range services {
		now := time.Now().In(cfg.Timezone)
		filter := bson.M{"name": svc.Name}
		update := bson.M{
			"$setOnInsert": bson.M{
				"_id":              primitive.NewObjectID().Hex(),
				"name":             svc.Name,
				"description":      svc.Description,
				"price":            svc.Price,
				"duration_minutes": svc.DurationMinutes,
				"created_at":       now,
				"updated_at":       now,
			},
		}

		if _, err := cols.Services.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			log.Fatalf("seed error for %s: %v", svc.Name, err)
		}
	}

	username := envOrDefault("ADMIN_USER", "admin")
	email := envOrDefault("ADMIN_EMAIL", "")
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Printf("seed admin: ADMIN_PASSWORD missing, skipping %s", username)
	} else if err := seedAdminUser(ctx, cols, username, email, password, cfg.Timezone); err != nil {
		log.Fatalf("seed admin error for %s: %v", username, err)
	}

	log.Println("seed completed")
}

func seedAdminUser(ctx context.Context, cols *db.Collections, username, email, password string, loc *time.Location) error {
	if cols == nil || cols.Users == nil {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now().In(loc)
	filter := bson.M{"username": username}
	set := bson.M{
		"password_hash": hash,
		"role":          models.UserRoleAdmin,
		"updated_at":    now,
	}
	if email != "" {
		set["email"] = email
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID().Hex(),
			"username":   username,
			"created_at": now,
		},
	}
	_, err = cols.Users.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
