package model

// DefaultMood and DefaultWeather make up the status of a day nobody touched yet.
const (
	DefaultMood    = "😊"
	DefaultWeather = "☀️"
)

// Moods lists the accepted mood symbols in display order.
var Moods = []string{"😊", "😇", "😐", "😔", "😡"}

// Weathers lists the accepted weather symbols in display order.
var Weathers = []string{"☀️", "☁️", "🌧️", "⛈️", "❄️"}

// MediaType classifies a diary attachment.
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
	MediaLink  MediaType = "link"
)

// Valid reports whether t is one of the known media types.
func (t MediaType) Valid() bool {
	switch t {
	case MediaPhoto, MediaVideo, MediaAudio, MediaLink:
		return true
	}
	return false
}

// Task is a to-do item of a single day.
type Task struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Note is a free-form note of a single day.
type Note struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Event is a calendar appointment. Fields are stored as entered.
type Event struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Location    string `json:"location"`
	Attendees   string `json:"attendees"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Meet        string `json:"meet"`
	Recurrence  string `json:"recurrence"`
	Color       string `json:"color"`
}

// MediaItem is an attachment of the diary.
type MediaItem struct {
	Type MediaType `json:"type"`
	URL  string    `json:"url"`
	Name string    `json:"name,omitempty"`
}

// Diary is the diary page of a single day.
type Diary struct {
	Text  string      `json:"text"`
	Media []MediaItem `json:"media"`
}

// Status captures mood and weather of a day plus almanac annotations.
type Status struct {
	Mood    string `json:"mood"`
	Weather string `json:"weather"`
	Saint   string `json:"saint,omitempty"`
	Proverb string `json:"proverb,omitempty"`
}

// DefaultStatus returns the status of a day with no saved data.
func DefaultStatus() Status {
	return Status{Mood: DefaultMood, Weather: DefaultWeather}
}

// DayBundle is everything entered for one calendar date.
type DayBundle struct {
	Date   string  `json:"date"`
	Tasks  []Task  `json:"tasks"`
	Notes  []Note  `json:"notes"`
	Events []Event `json:"events"`
	Diary  Diary   `json:"diary"`
	Status Status  `json:"status"`
}

// NewDayBundle returns the empty bundle for date.
func NewDayBundle(date string) DayBundle {
	return DayBundle{
		Date:   date,
		Tasks:  []Task{},
		Notes:  []Note{},
		Events: []Event{},
		Diary:  Diary{Media: []MediaItem{}},
		Status: DefaultStatus(),
	}
}

// Normalize replaces nil collections and empty status fields with their defaults.
func (b *DayBundle) Normalize() {
	if b.Tasks == nil {
		b.Tasks = []Task{}
	}
	if b.Notes == nil {
		b.Notes = []Note{}
	}
	if b.Events == nil {
		b.Events = []Event{}
	}
	if b.Diary.Media == nil {
		b.Diary.Media = []MediaItem{}
	}
	if b.Status.Mood == "" {
		b.Status.Mood = DefaultMood
	}
	if b.Status.Weather == "" {
		b.Status.Weather = DefaultWeather
	}
}

// EventIndex returns the position of the event with id, or -1.
func (b DayBundle) EventIndex(id int64) int {
	for i, e := range b.Events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// ValidMood reports whether m is an accepted mood symbol.
func ValidMood(m string) bool { return contains(Moods, m) }

// ValidWeather reports whether w is an accepted weather symbol.
func ValidWeather(w string) bool { return contains(Weathers, w) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
