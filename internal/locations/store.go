package locations

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists fixes keyed by a store-assigned id.
type Store interface {
	Save(ctx context.Context, fix Fix) (Fix, error)
	FindByID(ctx context.Context, id int64) (Fix, bool, error)
	FindAllByUser(ctx context.Context, userID int64) ([]Fix, error)
	FindByUserAndTimeRange(ctx context.Context, userID int64, start, end time.Time) ([]Fix, error)
	DeleteByID(ctx context.Context, id int64) error
}

var (
	timestampColumn = clause.Column{Name: "timestamp"}
	newestFirst     = clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: timestampColumn, Desc: true},
		{Column: clause.Column{Name: "id"}, Desc: true},
	}}
)

// GormStore implements Store on top of a GORM connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps the provided connection. The locations table must already exist.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Save inserts the fix and returns it with the assigned id.
func (s *GormStore) Save(ctx context.Context, fix Fix) (Fix, error) {
	record := toRecord(fix)
	record.ID = 0
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return Fix{}, err
	}
	return fromRecord(record), nil
}

// FindByID loads a single fix. The boolean is false when no row matches.
func (s *GormStore) FindByID(ctx context.Context, id int64) (Fix, bool, error) {
	var record locationRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Fix{}, false, nil
	}
	if err != nil {
		return Fix{}, false, err
	}
	return fromRecord(record), true, nil
}

// FindAllByUser returns every fix of the user, newest first.
func (s *GormStore) FindAllByUser(ctx context.Context, userID int64) ([]Fix, error) {
	var records []locationRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Clauses(newestFirst).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return fromRecords(records), nil
}

// FindByUserAndTimeRange returns the user's fixes with start <= timestamp <= end, newest first.
func (s *GormStore) FindByUserAndTimeRange(ctx context.Context, userID int64, start, end time.Time) ([]Fix, error) {
	var records []locationRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where(clause.Gte{Column: timestampColumn, Value: start.UTC()}).
		Where(clause.Lte{Column: timestampColumn, Value: end.UTC()}).
		Clauses(newestFirst).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return fromRecords(records), nil
}

// DeleteByID removes the fix. Deleting an unknown id is not an error.
func (s *GormStore) DeleteByID(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&locationRecord{}).Error
}
