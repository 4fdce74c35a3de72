// Package rowstore defines the medication and health-metric row store.
package rowstore

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Fau-Caudullo/happyapp/internal/model"
)

// Table names shared by every driver.
const (
	TableMedications = "medications"
	TableMetrics     = "health_metrics"
	TableMoods       = "moods"
	TableJournal     = "notes"
)

// Store is the medication/metrics collaborator.
// Medications are ordered by schedule_time, metrics by created_at, moods and
// journal notes newest first.
type Store interface {
	ListMedications(ctx context.Context) ([]model.Medication, error)
	InsertMedication(ctx context.Context, name, description, scheduleTime string) (model.Medication, error)
	UpdateMedication(ctx context.Context, id int64, upd model.MedicationUpdate) (model.Medication, error)
	DeleteMedication(ctx context.Context, id int64) error

	// ListMetrics returns rows of metricType, or every row when metricType is empty.
	ListMetrics(ctx context.Context, metricType string) ([]model.Metric, error)
	InsertMetric(ctx context.Context, metricType string, value float64, unit string) (model.Metric, error)
	InsertMetrics(ctx context.Context, batch []model.NewMetric) ([]model.Metric, error)

	InsertMood(ctx context.Context, mood string) (model.MoodEntry, error)
	ListMoods(ctx context.Context) ([]model.MoodEntry, error)

	// FindJournalNote returns the newest note created in [from, to), or a NotFoundError.
	FindJournalNote(ctx context.Context, from, to time.Time) (model.JournalNote, error)
	// UpsertJournalNote inserts n, or replaces the content of the note with n.ID when set.
	UpsertJournalNote(ctx context.Context, n model.JournalNote) (model.JournalNote, error)
	ListJournalNotes(ctx context.Context) ([]model.JournalNote, error)

	HealthPing(ctx context.Context) error
}

// StatusError is a non-2xx answer from a remote row store.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// Recoverable reports whether retrying the request may succeed:
// 408, 429 and 5xx are recoverable, other 4xx are not.
func (e *StatusError) Recoverable() bool {
	switch {
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}
