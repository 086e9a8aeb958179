package testrun

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hairizuan-noorazman/webtester/results"
)

// Record is the persisted form of a finished (or started) run. One row is
// written when a run begins and updated once when it reaches a final state.
type Record struct {
	ID         uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	TargetURL  string     `json:"target_url" gorm:"type:varchar(2048);not null"`
	TestFocus  string     `json:"test_focus" gorm:"type:text"`
	Provider   string     `json:"provider" gorm:"type:varchar(32);not null"`
	Model      string     `json:"model" gorm:"type:varchar(128);not null"`
	Status     Status     `json:"status" gorm:"type:varchar(20);not null;index:idx_records_status"`
	ResultJSON string     `json:"-" gorm:"type:mediumtext"`
	Error      string     `json:"error,omitempty" gorm:"type:text"`
	StartedAt  time.Time  `json:"started_at" gorm:"index:idx_records_started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName keeps the table name stable across gorm naming strategies.
func (Record) TableName() string { return "test_run_records" }

// BeforeCreate generates an ID when none was assigned.
func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Report decodes the stored result JSON, nil when the run has none.
func (r *Record) Report() (*results.Report, error) {
	if r.ResultJSON == "" {
		return nil, nil
	}
	var report results.Report
	if err := json.Unmarshal([]byte(r.ResultJSON), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// NewRecord builds a history record from an in-memory run.
func NewRecord(run Run) (*Record, error) {
	rec := &Record{
		ID:         run.ID,
		TargetURL:  run.Config.TargetURL,
		TestFocus:  run.Config.TestFocus,
		Provider:   string(run.Config.Provider),
		Model:      run.Config.Model,
		Status:     run.Status,
		Error:      run.Error,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
	if run.Result != nil {
		data, err := json.Marshal(run.Result)
		if err != nil {
			return nil, err
		}
		rec.ResultJSON = string(data)
	}
	return rec, nil
}

// HistoryStore persists run records.
type HistoryStore interface {
	// Create inserts a new record.
	Create(ctx context.Context, record *Record) error

	// GetByID retrieves a record by run ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// Update applies the given setters to a record.
	Update(ctx context.Context, id uuid.UUID, setters ...RecordSetter) error

	// List retrieves records ordered by start time, newest first.
	List(ctx context.Context, limit, offset int) ([]*Record, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)
}

// RecordSetter mutates one field of a record during an update.
type RecordSetter func(*Record) error
