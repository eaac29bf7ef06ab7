package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidUser indicates the user row did not carry a usable identifier.
var ErrInvalidUser = errors.New("users: invalid user")

// ServiceConfig describes the dependencies required for user bookkeeping.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service manages the minimal users table.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService constructs the users service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:  cfg.Database,
		now: clock,
	}, nil
}

// EnsureSchema creates the users table when it does not exist yet.
func (s *Service) EnsureSchema(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&User{})
}

// EnsureUser inserts the user when no row with the same id exists.
// Existing rows are left untouched. The boolean reports whether a row was created.
func (s *Service) EnsureUser(ctx context.Context, user User) (bool, error) {
	if user.ID <= 0 {
		return false, fmt.Errorf("%w: id %d", ErrInvalidUser, user.ID)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", user.ID).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	record := User{
		ID:        user.ID,
		Username:  normalize(user.Username),
		Email:     normalize(user.Email),
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return false, err
	}
	return true, nil
}
