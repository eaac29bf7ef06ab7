package locations

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultUserID is assigned to submitted fixes that do not name a user.
const DefaultUserID int64 = 1

const (
	maxLatitudeMagnitude  = 100.0
	maxLongitudeMagnitude = 1000.0
	coordinateScale       = 1e8
)

// ErrInvalidCoordinate indicates a coordinate that is not finite or does not fit the stored precision.
var ErrInvalidCoordinate = errors.New("locations: invalid coordinate")

// Fix is a single GPS observation recorded for a user.
type Fix struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float32  `json:"accuracy"`
	Speed     *float32  `json:"speed"`
	Direction *float32  `json:"direction"`
	Timestamp time.Time `json:"timestamp"`
}

// RoundCoordinate rounds a coordinate to the 8 fractional digits kept by the locations table.
func RoundCoordinate(value float64) float64 {
	return math.Round(value*coordinateScale) / coordinateScale
}

// Normalized returns the fix with its coordinates rounded to the stored scale.
func (f Fix) Normalized() Fix {
	f.Latitude = RoundCoordinate(f.Latitude)
	f.Longitude = RoundCoordinate(f.Longitude)
	return f
}

// Validate reports whether the coordinates, once rounded to the stored scale, can be persisted.
func (f Fix) Validate() error {
	f = f.Normalized()
	if math.IsNaN(f.Latitude) || math.IsInf(f.Latitude, 0) || math.Abs(f.Latitude) >= maxLatitudeMagnitude {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, f.Latitude)
	}
	if math.IsNaN(f.Longitude) || math.IsInf(f.Longitude, 0) || math.Abs(f.Longitude) >= maxLongitudeMagnitude {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, f.Longitude)
	}
	return nil
}

// locationRecord is the persisted row for a fix.
type locationRecord struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;index:idx_locations_user_time,priority:1"`
	Latitude  float64   `gorm:"column:latitude;type:decimal(10,8);not null"`
	Longitude float64   `gorm:"column:longitude;type:decimal(11,8);not null"`
	Accuracy  *float32  `gorm:"column:accuracy"`
	Speed     *float32  `gorm:"column:speed"`
	Direction *float32  `gorm:"column:direction"`
	Timestamp time.Time `gorm:"column:timestamp;not null;index:idx_locations_user_time,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (locationRecord) TableName() string {
	return "locations"
}

// Schema returns the models that back the location store, for use with AutoMigrate.
func Schema() []any {
	return []any{&locationRecord{}}
}

func toRecord(fix Fix) locationRecord {
	return locationRecord{
		ID:        fix.ID,
		UserID:    fix.UserID,
		Latitude:  RoundCoordinate(fix.Latitude),
		Longitude: RoundCoordinate(fix.Longitude),
		Accuracy:  fix.Accuracy,
		Speed:     fix.Speed,
		Direction: fix.Direction,
		Timestamp: fix.Timestamp.UTC(),
	}
}

func fromRecord(record locationRecord) Fix {
	return Fix{
		ID:        record.ID,
		UserID:    record.UserID,
		Latitude:  record.Latitude,
		Longitude: record.Longitude,
		Accuracy:  record.Accuracy,
		Speed:     record.Speed,
		Direction: record.Direction,
		Timestamp: record.Timestamp.UTC(),
	}
}

func fromRecords(records []locationRecord) []Fix {
	fixes := make([]Fix, 0, len(records))
	for _, record := range records {
		fixes = append(fixes, fromRecord(record))
	}
	return fixes
}
