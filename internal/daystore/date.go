package daystore

import (
	"time"

	"github.com/Fau-Caudullo/happyapp/internal/model"
)

// DateLayout is the YYYY-MM-DD form every partition key uses.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string as a civil date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, model.NewValidationError("date", "must be YYYY-MM-DD")
	}
	return t, nil
}

// FormatDate renders the civil date of t, ignoring its clock and location.
func FormatDate(t time.Time) string {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(DateLayout)
}

// ShiftDate moves date by n calendar days.
func ShiftDate(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// NextDay returns the calendar day after date.
func NextDay(date string) (string, error) { return ShiftDate(date, 1) }

// PrevDay returns the calendar day before date.
func PrevDay(date string) (string, error) { return ShiftDate(date, -1) }

// Today returns the current civil date in loc.
func Today(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return FormatDate(time.Now().In(loc))
}
