package database

import (
	"context"
	"time"

	"github.com/MarcoPoloResearchLab/gps-tracker/internal/locations"
	"github.com/MarcoPoloResearchLab/gps-tracker/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const seedDemoLocations = "2026-10-16_seed_demo_locations"

// DemoUser is the account that unattributed fixes belong to.
var DemoUser = users.User{
	ID:       locations.DefaultUserID,
	Username: "testuser",
	Email:    "test@example.com",
}

type demoFix struct {
	userID    int64
	latitude  float64
	longitude float64
	accuracy  float32
	speed     float32
	direction float32
	age       time.Duration
}

var demoFixes = []demoFix{
	{userID: 1, latitude: 39.90420000, longitude: 116.40740000, accuracy: 10, speed: 0, direction: 0, age: 20 * time.Minute},
	{userID: 1, latitude: 39.91500000, longitude: 116.40390000, accuracy: 8, speed: 1.4, direction: 355, age: 10 * time.Minute},
	{userID: 1, latitude: 39.99930000, longitude: 116.32630000, accuracy: 12, speed: 11.2, direction: 310, age: 0},
	{userID: 2, latitude: 31.23040000, longitude: 121.47370000, accuracy: 15, speed: 0, direction: 0, age: 30 * time.Minute},
	{userID: 2, latitude: 31.23970000, longitude: 121.49980000, accuracy: 9, speed: 2.1, direction: 45, age: 5 * time.Minute},
}

// SeedConfig describes the collaborators used while seeding demo data.
type SeedConfig struct {
	Clock  func() time.Time
	Logger *zap.Logger
}

// Seed ensures the users table, the demo user and the demo fixes exist.
// Failures are logged as warnings and never returned.
func Seed(ctx context.Context, db *gorm.DB, cfg SeedConfig) {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if db == nil {
		logger.Warn("data initialization skipped", zap.String("reason", "missing_database"))
		return
	}

	usersService, err := users.NewService(users.ServiceConfig{Database: db, Clock: clock})
	if err != nil {
		logger.Warn("data initialization warning", zap.Error(err))
		return
	}

	if err := usersService.EnsureSchema(ctx); err != nil {
		logger.Warn("data initialization warning", zap.String("step", "users_table"), zap.Error(err))
		return
	}

	created, err := usersService.EnsureUser(ctx, DemoUser)
	switch {
	case err != nil:
		logger.Warn("data initialization warning", zap.String("step", "demo_user"), zap.Error(err))
	case created:
		logger.Info("demo user created", zap.Int64("user_id", DemoUser.ID))
	default:
		logger.Info("demo user already present", zap.Int64("user_id", DemoUser.ID))
	}

	seeds := []migrationDefinition{
		{name: seedDemoLocations, apply: insertDemoFixes(ctx, clock().UTC())},
	}
	if err := applyOnce(db.WithContext(ctx), seeds, clock, logger); err != nil {
		logger.Warn("data initialization warning", zap.String("step", "demo_locations"), zap.Error(err))
	}
}

func insertDemoFixes(ctx context.Context, now time.Time) func(*gorm.DB) error {
	return func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			store := locations.NewGormStore(tx)
			for _, demo := range demoFixes {
				accuracy, speed, direction := demo.accuracy, demo.speed, demo.direction
				fix := locations.Fix{
					UserID:    demo.userID,
					Latitude:  demo.latitude,
					Longitude: demo.longitude,
					Accuracy:  &accuracy,
					Speed:     &speed,
					Direction: &direction,
					Timestamp: now.Add(-demo.age).Truncate(time.Millisecond),
				}
				if _, err := store.Save(ctx, fix); err != nil {
					return err
				}
			}
			return nil
		})
	}
}
