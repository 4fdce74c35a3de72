package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Fau-Caudullo/happyapp/internal/daystore"
	"github.com/Fau-Caudullo/happyapp/internal/model"
	"github.com/Fau-Caudullo/happyapp/internal/rowstore"
)

// JournalService keeps one free-text journal note per local day in the notes table.
type JournalService struct {
	rows rowstore.Store
	loc  *time.Location
	now  func() time.Time

	mu sync.Mutex // serializes find-then-upsert in SaveNote
}

// NewJournalService wires a JournalService; loc defaults to time.Local.
func NewJournalService(rows rowstore.Store, loc *time.Location) *JournalService {
	if loc == nil {
		loc = time.Local
	}
	return &JournalService{rows: rows, loc: loc, now: time.Now}
}

// WithClock replaces the clock deciding which day SaveNote writes to.
func (s *JournalService) WithClock(now func() time.Time) *JournalService {
	s.now = now
	return s
}

// Today returns the current local date.
func (s *JournalService) Today() string { return daystore.FormatDate(s.now().In(s.loc)) }

func (s *JournalService) bounds(date string) (time.Time, time.Time, error) {
	d, err := daystore.ParseDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1), nil
}

// NoteOn returns the note written on the local date, or nil when there is none.
func (s *JournalService) NoteOn(ctx context.Context, date string) (*model.JournalNote, error) {
	from, to, err := s.bounds(date)
	if err != nil {
		return nil, err
	}
	n, err := s.rows.FindJournalNote(ctx, from, to)
	if model.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// SaveNote writes today's note, replacing its content when one already exists.
func (s *JournalService) SaveNote(ctx context.Context, content string) (model.JournalNote, error) {
	if strings.TrimSpace(content) == "" {
		return model.JournalNote{}, model.NewValidationError("content", "is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.NoteOn(ctx, s.Today())
	if err != nil {
		return model.JournalNote{}, err
	}
	n := model.JournalNote{Content: content}
	if existing != nil {
		n.ID = existing.ID
	}
	return s.rows.UpsertJournalNote(ctx, n)
}

// History returns every note, newest first.
func (s *JournalService) History(ctx context.Context) ([]model.JournalNote, error) {
	return s.rows.ListJournalNotes(ctx)
}
