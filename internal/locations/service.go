package locations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	errMissingStore = errors.New("location store is required")
	noOpLogger      = zap.NewNop()
)

// ServiceError carries an "operation.reason" code alongside the underlying cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew = "locations.service.new"
	opSave       = "locations.save"
	opFindByID   = "locations.find_by_id"
	opHistory    = "locations.history"
	opLatest     = "locations.latest"
	opRange      = "locations.range"
	opDelete     = "locations.delete"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig describes the dependencies of the location service.
type ServiceConfig struct {
	Store  Store
	Clock  func() time.Time
	Logger *zap.Logger
}

// Service orchestrates store calls and stamps server-side receipt times.
type Service struct {
	store  Store
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the location service; Clock and Logger fall back to time.Now and a no-op logger.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, newServiceError(opServiceNew, "missing_store", errMissingStore)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		store:  cfg.Store,
		clock:  clock,
		logger: logger,
	}, nil
}

// Save stamps the fix with the current server time, replacing any client value, and persists it.
func (s *Service) Save(ctx context.Context, fix Fix) (Fix, error) {
	if s.store == nil {
		return Fix{}, newServiceError(opSave, "missing_store", errMissingStore)
	}
	fix = fix.Normalized()
	if err := fix.Validate(); err != nil {
		return Fix{}, newServiceError(opSave, "invalid_fix", err)
	}

	fix.ID = 0
	fix.Timestamp = s.clock().UTC().Truncate(time.Millisecond)

	saved, err := s.store.Save(ctx, fix)
	if err != nil {
		s.logError(opSave, "insert_failed", err, zap.Int64("user_id", fix.UserID))
		return Fix{}, newServiceError(opSave, "insert_failed", err)
	}
	return saved, nil
}

// FindByID returns the fix with the given id; the boolean is false when it does not exist.
func (s *Service) FindByID(ctx context.Context, id int64) (Fix, bool, error) {
	if s.store == nil {
		return Fix{}, false, newServiceError(opFindByID, "missing_store", errMissingStore)
	}
	fix, found, err := s.store.FindByID(ctx, id)
	if err != nil {
		s.logError(opFindByID, "query_failed", err, zap.Int64("location_id", id))
		return Fix{}, false, newServiceError(opFindByID, "query_failed", err)
	}
	return fix, found, nil
}

// History returns every fix recorded for the user, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]Fix, error) {
	if s.store == nil {
		return nil, newServiceError(opHistory, "missing_store", errMissingStore)
	}
	fixes, err := s.store.FindAllByUser(ctx, userID)
	if err != nil {
		s.logError(opHistory, "query_failed", err, zap.Int64("user_id", userID))
		return nil, newServiceError(opHistory, "query_failed", err)
	}
	return fixes, nil
}

// Latest returns the first entry of the user's history.
// The boolean is false when the user has no fixes.
func (s *Service) Latest(ctx context.Context, userID int64) (Fix, bool, error) {
	if s.store == nil {
		return Fix{}, false, newServiceError(opLatest, "missing_store", errMissingStore)
	}
	fixes, err := s.store.FindAllByUser(ctx, userID)
	if err != nil {
		s.logError(opLatest, "query_failed", err, zap.Int64("user_id", userID))
		return Fix{}, false, newServiceError(opLatest, "query_failed", err)
	}
	if len(fixes) == 0 {
		return Fix{}, false, nil
	}
	return fixes[0], true, nil
}

// Range returns the user's fixes whose timestamp lies within [start, end], newest first.
func (s *Service) Range(ctx context.Context, userID int64, start, end time.Time) ([]Fix, error) {
	if s.store == nil {
		return nil, newServiceError(opRange, "missing_store", errMissingStore)
	}
	fixes, err := s.store.FindByUserAndTimeRange(ctx, userID, start, end)
	if err != nil {
		s.logError(opRange, "query_failed", err,
			zap.Int64("user_id", userID),
			zap.Time("start", start),
			zap.Time("end", end))
		return nil, newServiceError(opRange, "query_failed", err)
	}
	return fixes, nil
}

// Delete removes the fix. Unknown ids succeed silently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if s.store == nil {
		return newServiceError(opDelete, "missing_store", errMissingStore)
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		s.logError(opDelete, "delete_failed", err, zap.Int64("location_id", id))
		return newServiceError(opDelete, "delete_failed", err)
	}
	return nil
}

// Distance returns the great-circle distance in meters between two points.
func (s *Service) Distance(lat1, lon1, lat2, lon2 float64) float64 {
	return Distance(lat1, lon1, lat2, lon2)
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil {
		return noOpLogger
	}
	if s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("locations service error", attrs...)
}
