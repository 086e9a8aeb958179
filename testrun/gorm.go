package testrun

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hairizuan-noorazman/webtester/logger"
)

// GormStore implements HistoryStore using GORM. It works against both the
// MySQL deployment schema and the SQLite file used for local development.
type GormStore struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewGormStore creates a GORM-backed history store.
func NewGormStore(db *gorm.DB, log logger.Logger) *GormStore {
	return &GormStore{
		db:     db,
		logger: log,
	}
}

// Create inserts a new record.
func (s *GormStore) Create(ctx context.Context, record *Record) error {
	if record.Status == "" {
		record.Status = StatusRunning
	}
	if !record.Status.IsValid() {
		return ErrInvalidRecordStatus
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		s.logger.Error(ctx, "failed to create run record", map[string]interface{}{
			"error":  err.Error(),
			"run_id": record.ID.String(),
		})
		return err
	}

	return nil
}

// GetByID retrieves a record by run ID.
func (s *GormStore) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	var record Record
	err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error(ctx, "failed to get run record", map[string]interface{}{
			"error":  err.Error(),
			"run_id": id.String(),
		})
		return nil, err
	}

	return &record, nil
}

// Update applies the given setters to a record and saves it.
func (s *GormStore) Update(ctx context.Context, id uuid.UUID, setters ...RecordSetter) error {
	record, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, set := range setters {
		if err := set(record); err != nil {
			return err
		}
	}

	if err := s.db.WithContext(ctx).Save(record).Error; err != nil {
		s.logger.Error(ctx, "failed to update run record", map[string]interface{}{
			"error":  err.Error(),
			"run_id": id.String(),
		})
		return err
	}

	return nil
}

// List retrieves records ordered by start time, newest first.
func (s *GormStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	var records []*Record
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error

	if err != nil {
		s.logger.Error(ctx, "failed to list run records", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	return records, nil
}

// Count returns the total number of records.
func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Record{}).Count(&count).Error; err != nil {
		s.logger.Error(ctx, "failed to count run records", map[string]interface{}{
			"error": err.Error(),
		})
		return 0, err
	}
	return count, nil
}
