package testrun

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hairizuan-noorazman/webtester/results"
)

// ErrInvalidRecordStatus is returned when a setter receives an unknown status.
var ErrInvalidRecordStatus = errors.New("invalid record status")

// SetRecordStatus sets the record's status.
func SetRecordStatus(status Status) RecordSetter {
	return func(r *Record) error {
		if !status.IsValid() {
			return ErrInvalidRecordStatus
		}
		r.Status = status
		return nil
	}
}

// SetRecordError stores the failure detail.
func SetRecordError(detail string) RecordSetter {
	return func(r *Record) error {
		r.Error = detail
		return nil
	}
}

// SetRecordFinishedAt stamps the finish time.
func SetRecordFinishedAt(t time.Time) RecordSetter {
	return func(r *Record) error {
		r.FinishedAt = &t
		return nil
	}
}

// SetRecordResult serializes and stores the normalized report.
func SetRecordResult(report *results.Report) RecordSetter {
	return func(r *Record) error {
		if report == nil {
			r.ResultJSON = ""
			return nil
		}
		data, err := json.Marshal(report)
		if err != nil {
			return err
		}
		r.ResultJSON = string(data)
		return nil
	}
}
