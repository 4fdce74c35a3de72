package model

import "time"

// Metric types recorded in the health_metrics table.
const (
	MetricWeight      = "weight"
	MetricSteps       = "steps"
	MetricCalories    = "calories"
	MetricSystolic    = "systolic"
	MetricDiastolic   = "diastolic"
	MetricHeartbeat   = "heartbeat"
	MetricOxygen      = "oxygen"
	MetricGlucose     = "glucose"
	MetricWater       = "water"
	MetricPeriodStart = "period_start"
)

// MetricUnits maps every known metric type to its unit.
var MetricUnits = map[string]string{
	MetricWeight:      "kg",
	MetricSteps:       "steps",
	MetricCalories:    "kcal",
	MetricSystolic:    "mmHg",
	MetricDiastolic:   "mmHg",
	MetricHeartbeat:   "bpm",
	MetricOxygen:      "%",
	MetricGlucose:     "mg/dL",
	MetricWater:       "ml",
	MetricPeriodStart: "event",
}

// Medication is a row of the medications table.
type Medication struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	ScheduleTime  string    `json:"schedule_time"`
	LastTakenDate *string   `json:"last_taken_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// TakenOn reports whether the medication is marked as taken on date.
func (m Medication) TakenOn(date string) bool {
	return m.LastTakenDate != nil && *m.LastTakenDate == date
}

// MedicationUpdate carries the columns to patch; nil fields are left untouched.
// ClearLastTaken sets last_taken_date to NULL.
type MedicationUpdate struct {
	Name           *string
	Description    *string
	ScheduleTime   *string
	LastTakenDate  *string
	ClearLastTaken bool
}

// Metric is a row of the health_metrics table.
type Metric struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMetric is an insert payload for health_metrics.
type NewMetric struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// MoodLevel is a value of the moods table and the symbol it is picked by.
type MoodLevel struct {
	Value string `json:"value"`
	Emoji string `json:"emoji"`
}

// MoodLevels lists the accepted mood levels from most to least energetic.
var MoodLevels = []MoodLevel{
	{Value: "energico", Emoji: "⚡"},
	{Value: "felice", Emoji: "😊"},
	{Value: "neutro", Emoji: "😐"},
	{Value: "triste", Emoji: "😔"},
	{Value: "stressato", Emoji: "🤯"},
}

// ParseMoodLevel accepts a stored value or its symbol and returns the stored value.
func ParseMoodLevel(v string) (string, bool) {
	for _, l := range MoodLevels {
		if v == l.Value || v == l.Emoji {
			return l.Value, true
		}
	}
	return "", false
}

// MoodEntry is a row of the moods table.
type MoodEntry struct {
	ID        int64     `json:"id"`
	Mood      string    `json:"mood"`
	CreatedAt time.Time `json:"created_at"`
}

// Fact is a "fact of the day" text.
type Fact struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Almanac combines the fact of the day with the saint and proverb of the date.
type Almanac struct {
	Date    string `json:"date"`
	Saint   string `json:"saint"`
	Proverb string `json:"proverb"`
	Fact    Fact   `json:"fact"`
}

// JournalNote is a row of the notes table: the free-text thought of a day.
type JournalNote struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
