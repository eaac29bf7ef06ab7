package locations

import (
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// steppingClock returns start, start+step, start+2*step, ... on successive calls.
type steppingClock struct {
	next time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	current := c.next
	c.next = c.next.Add(c.step)
	return current
}

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	databasePath := filepath.Join(t.TempDir(), "locations.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(Schema()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, clock func() time.Time) (*Service, *GormStore) {
	t.Helper()

	store := NewGormStore(openTestDatabase(t))
	service, err := NewService(ServiceConfig{
		Store: store,
		Clock: clock,
	})
	if err != nil {
		t.Fatalf("failed to construct locations service: %v", err)
	}
	return service, store
}

func float32Ptr(value float32) *float32 {
	return &value
}
