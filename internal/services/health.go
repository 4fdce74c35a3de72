package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Fau-Caudullo/happyapp/internal/daystore"
	"github.com/Fau-Caudullo/happyapp/internal/model"
	"github.com/Fau-Caudullo/happyapp/internal/rowstore"
)

// DefaultWaterML is the glass size recorded when no amount is given.
const DefaultWaterML = 250

// MaxCycleDay is the last cycle day still reported.
const MaxCycleDay = 35

// StepCounter returns the step total of a date.
type StepCounter interface {
	DailySteps(ctx context.Context, token *oauth2.Token, date string) (int64, error)
}

// MedicationStatus is a medication together with its taken flag for one date.
type MedicationStatus struct {
	model.Medication
	Taken bool `json:"taken"`
}

// HealthService implements medication, metric, mood and fitness use cases.
type HealthService struct {
	rows    rowstore.Store
	fitness StepCounter
	loc     *time.Location
}

// NewHealthService wires a HealthService. fitness may be nil; loc defaults to time.Local.
func NewHealthService(rows rowstore.Store, fitness StepCounter, loc *time.Location) *HealthService {
	if loc == nil {
		loc = time.Local
	}
	return &HealthService{rows: rows, fitness: fitness, loc: loc}
}

var scheduleRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)(?::([0-5]\d))?$`)

// NormalizeScheduleTime turns HH:MM into HH:MM:00; empty means midnight.
func NormalizeScheduleTime(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "00:00:00", nil
	}
	m := scheduleRe.FindStringSubmatch(v)
	if m == nil {
		return "", model.NewValidationError("schedule_time", "must be HH:MM or HH:MM:SS")
	}
	sec := m[3]
	if sec == "" {
		sec = "00"
	}
	return fmt.Sprintf("%s:%s:%s", m[1], m[2], sec), nil
}

// ListMedications returns every medication with its taken flag for date.
func (s *HealthService) ListMedications(ctx context.Context, date string) ([]MedicationStatus, error) {
	if _, err := daystore.ParseDate(date); err != nil {
		return nil, err
	}
	meds, err := s.rows.ListMedications(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MedicationStatus, 0, len(meds))
	for _, m := range meds {
		out = append(out, MedicationStatus{Medication: m, Taken: m.TakenOn(date)})
	}
	return out, nil
}

// AddMedication inserts a medication after normalizing its schedule time.
func (s *HealthService) AddMedication(ctx context.Context, name, description, scheduleTime string) (model.Medication, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Medication{}, model.NewValidationError("name", "is required")
	}
	st, err := NormalizeScheduleTime(scheduleTime)
	if err != nil {
		return model.Medication{}, err
	}
	return s.rows.InsertMedication(ctx, name, description, st)
}

// UpdateMedication patches a medication.
func (s *HealthService) UpdateMedication(ctx context.Context, id int64, upd model.MedicationUpdate) (model.Medication, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return model.Medication{}, model.NewValidationError("name", "must not be empty")
	}
	if upd.ScheduleTime != nil {
		st, err := NormalizeScheduleTime(*upd.ScheduleTime)
		if err != nil {
			return model.Medication{}, err
		}
		upd.ScheduleTime = &st
	}
	if upd.LastTakenDate != nil {
		if _, err := daystore.ParseDate(*upd.LastTakenDate); err != nil {
			return model.Medication{}, model.NewValidationError("last_taken_date", "must be YYYY-MM-DD")
		}
	}
	return s.rows.UpdateMedication(ctx, id, upd)
}

// DeleteMedication removes a medication.
func (s *HealthService) DeleteMedication(ctx context.Context, id int64) error {
	return s.rows.DeleteMedication(ctx, id)
}

// ToggleTaken marks medication id as taken on date, or clears the mark when it
// was already taken on date. Marks for other dates are overwritten.
func (s *HealthService) ToggleTaken(ctx context.Context, id int64, date string) (MedicationStatus, error) {
	if _, err := daystore.ParseDate(date); err != nil {
		return MedicationStatus{}, err
	}
	meds, err := s.rows.ListMedications(ctx)
	if err != nil {
		return MedicationStatus{}, err
	}
	for _, m := range meds {
		if m.ID != id {
			continue
		}
		upd := model.MedicationUpdate{ClearLastTaken: m.TakenOn(date)}
		if !upd.ClearLastTaken {
			d := date
			upd.LastTakenDate = &d
		}
		updated, err := s.rows.UpdateMedication(ctx, id, upd)
		if err != nil {
			return MedicationStatus{}, err
		}
		return MedicationStatus{Medication: updated, Taken: updated.TakenOn(date)}, nil
	}
	return MedicationStatus{}, model.NewNotFoundError("medication", strconv.FormatInt(id, 10))
}

// GroupMetrics buckets rows by type, keeping their order.
func GroupMetrics(rows []model.Metric) map[string][]model.Metric {
	out := make(map[string][]model.Metric)
	for _, r := range rows {
		out[r.Type] = append(out[r.Type], r)
	}
	return out
}

// ListMetrics returns rows of metricType, or all rows when empty.
func (s *HealthService) ListMetrics(ctx context.Context, metricType string) ([]model.Metric, error) {
	return s.rows.ListMetrics(ctx, metricType)
}

// GroupedMetrics returns every metric grouped by type.
func (s *HealthService) GroupedMetrics(ctx context.Context) (map[string][]model.Metric, error) {
	rows, err := s.rows.ListMetrics(ctx, "")
	if err != nil {
		return nil, err
	}
	return GroupMetrics(rows), nil
}

// AddMetric records a metric; an empty unit is taken from the known units.
func (s *HealthService) AddMetric(ctx context.Context, metricType string, value float64, unit string) (model.Metric, error) {
	metricType = strings.TrimSpace(metricType)
	if metricType == "" {
		return model.Metric{}, model.NewValidationError("type", "is required")
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return model.Metric{}, model.NewValidationError("value", "must be a finite number")
	}
	if unit == "" {
		known, ok := model.MetricUnits[metricType]
		if !ok {
			return model.Metric{}, model.NewValidationError("unit", "is required for unknown metric types")
		}
		unit = known
	}
	return s.rows.InsertMetric(ctx, metricType, value, unit)
}

// RecordPressure stores a blood pressure reading as a systolic and a diastolic row.
func (s *HealthService) RecordPressure(ctx context.Context, systolic, diastolic float64) ([]model.Metric, error) {
	if systolic <= 0 || diastolic <= 0 {
		return nil, model.NewValidationError("pressure", "values must be positive")
	}
	unit := model.MetricUnits[model.MetricSystolic]
	return s.rows.InsertMetrics(ctx, []model.NewMetric{
		{Type: model.MetricSystolic, Value: systolic, Unit: unit},
		{Type: model.MetricDiastolic, Value: diastolic, Unit: unit},
	})
}

// AddWater records ml of water, DefaultWaterML when ml is not positive.
func (s *HealthService) AddWater(ctx context.Context, ml float64) (model.Metric, error) {
	if ml <= 0 {
		ml = DefaultWaterML
	}
	return s.rows.InsertMetric(ctx, model.MetricWater, ml, model.MetricUnits[model.MetricWater])
}

// Today returns the current date in the service location.
func (s *HealthService) Today() string { return daystore.Today(s.loc) }

func (s *HealthService) localDate(t time.Time) string {
	return daystore.FormatDate(t.In(s.loc))
}

// WaterTotal sums the water recorded on date.
func (s *HealthService) WaterTotal(ctx context.Context, date string) (float64, error) {
	if _, err := daystore.ParseDate(date); err != nil {
		return 0, err
	}
	rows, err := s.rows.ListMetrics(ctx, model.MetricWater)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, r := range rows {
		if s.localDate(r.CreatedAt) == date {
			total += r.Value
		}
	}
	return total, nil
}

// CycleDay returns the day of the cycle on date counted from the latest
// period start on or before it, or nil when none applies or it is past MaxCycleDay.
func (s *HealthService) CycleDay(ctx context.Context, date string) (*int, error) {
	day, err := daystore.ParseDate(date)
	if err != nil {
		return nil, err
	}
	rows, err := s.rows.ListMetrics(ctx, model.MetricPeriodStart)
	if err != nil {
		return nil, err
	}
	var start time.Time
	found := false
	for _, r := range rows {
		d, _ := daystore.ParseDate(s.localDate(r.CreatedAt))
		if d.After(day) {
			continue
		}
		if !found || d.After(start) {
			start, found = d, true
		}
	}
	if !found {
		return nil, nil
	}
	n := int(math.Ceil(math.Abs(day.Sub(start).Hours())/24)) + 1
	if n > MaxCycleDay {
		return nil, nil
	}
	return &n, nil
}

// MarkPeriodStart records a period start now.
func (s *HealthService) MarkPeriodStart(ctx context.Context) (model.Metric, error) {
	return s.rows.InsertMetric(ctx, model.MetricPeriodStart, 1, model.MetricUnits[model.MetricPeriodStart])
}

// RecordMood appends a mood entry. mood is a level value or its symbol.
func (s *HealthService) RecordMood(ctx context.Context, mood string) (model.MoodEntry, error) {
	level, ok := model.ParseMoodLevel(strings.TrimSpace(mood))
	if !ok {
		return model.MoodEntry{}, model.NewValidationError("mood", "must be energico, felice, neutro, triste or stressato")
	}
	return s.rows.InsertMood(ctx, level)
}

// ListMoods returns mood entries, newest first.
func (s *HealthService) ListMoods(ctx context.Context) ([]model.MoodEntry, error) {
	return s.rows.ListMoods(ctx)
}

// SyncSteps fetches the step total of date and stores it as a steps metric.
func (s *HealthService) SyncSteps(ctx context.Context, token *oauth2.Token, date string) (int64, error) {
	if s.fitness == nil {
		return 0, model.NewValidationError("fitness", "fitness client is not configured")
	}
	steps, err := s.fitness.DailySteps(ctx, token, date)
	if err != nil {
		return 0, err
	}
	if _, err := s.rows.InsertMetric(ctx, model.MetricSteps, float64(steps), model.MetricUnits[model.MetricSteps]); err != nil {
		return 0, err
	}
	return steps, nil
}
