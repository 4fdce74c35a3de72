package validate

import (
	"strconv"
	"strings"

	"github.com/Fau-Caudullo/happyapp/internal/daystore"
	"github.com/Fau-Caudullo/happyapp/internal/model"
)

// Text limits for free-form fields.
const (
	MaxTaskText    = 500
	MaxNoteTitle   = 200
	MaxNoteContent = 20000
	MaxDiaryText   = 100000
	MaxJournalText = 20000
	MaxSearchQuery = 200
)

// Date checks a YYYY-MM-DD path or query value.
func Date(v string) error {
	_, err := daystore.ParseDate(v)
	return err
}

// OptionalDate returns v, or fallback when v is empty. Non-empty values must be dates.
func OptionalDate(v, fallback string) (string, error) {
	if v == "" {
		return fallback, nil
	}
	if err := Date(v); err != nil {
		return "", err
	}
	return v, nil
}

// ID parses a positive int64 record id.
func ID(field, v string) (int64, error) {
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError(field, "must be a positive integer")
	}
	return id, nil
}

// NonEmpty rejects blank values.
func NonEmpty(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return model.NewValidationError(field, "is required")
	}
	return nil
}

// MaxLen rejects values longer than limit bytes.
func MaxLen(field, v string, limit int) error {
	if len(v) > limit {
		return model.NewValidationError(field, "exceeds "+strconv.Itoa(limit)+" characters")
	}
	return nil
}

// -------- Request specific helpers ----------

func AddTask(text string) error {
	if err := NonEmpty("text", text); err != nil {
		return err
	}
	return MaxLen("text", text, MaxTaskText)
}

// AddNote requires a title or a content; the other may be empty.
func AddNote(title, content string) error {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
		return model.NewValidationError("note", "title or content is required")
	}
	if err := MaxLen("title", title, MaxNoteTitle); err != nil {
		return err
	}
	return MaxLen("content", content, MaxNoteContent)
}

func Diary(text string) error {
	return MaxLen("text", text, MaxDiaryText)
}

// Journal checks the content of a journal note.
func Journal(content string) error {
	if err := NonEmpty("content", content); err != nil {
		return err
	}
	return MaxLen("content", content, MaxJournalText)
}

func Search(q string) error {
	if err := NonEmpty("q", q); err != nil {
		return err
	}
	return MaxLen("q", q, MaxSearchQuery)
}

// MonthDay parses the month and day path segments of a fact request.
func MonthDay(month, day string) (int, int, error) {
	m, err := strconv.Atoi(month)
	if err != nil {
		return 0, 0, model.NewValidationError("month", "must be a number")
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return 0, 0, model.NewValidationError("day", "must be a number")
	}
	return m, d, nil
}
