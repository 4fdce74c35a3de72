package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fau-Caudullo/happyapp/internal/model"
	"github.com/Fau-Caudullo/happyapp/internal/rowstore"
	rowsqlite "github.com/Fau-Caudullo/happyapp/internal/rowstore/sqlite"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func newJournalService(t *testing.T, loc *time.Location) (*JournalService, *fixedClock) {
	t.Helper()
	rows, err := rowsqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rows.Close() })
	clock := &fixedClock{now: time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC)}
	rows.WithClock(clock.Now)
	return NewJournalService(rows, loc).WithClock(clock.Now), clock
}

func TestJournal_OneNotePerDay(t *testing.T) {
	svc, clock := newJournalService(t, time.UTC)
	ctx := context.Background()

	none, err := svc.NoteOn(ctx, "2025-01-05")
	require.NoError(t, err)
	assert.Nil(t, none)

	first, err := svc.SaveNote(ctx, "sunny walk")
	require.NoError(t, err)
	clock.now = clock.now.Add(3 * time.Hour)
	second, err := svc.SaveNote(ctx, "sunny walk, then rain ☁️")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "the same day edits the same note")

	got, err := svc.NoteOn(ctx, "2025-01-05")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sunny walk, then rain ☁️", got.Content)

	clock.now = time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	next, err := svc.SaveNote(ctx, "new day")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, next.ID)

	history, err := svc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "new day", history[0].Content)
	assert.Equal(t, "sunny walk, then rain ☁️", history[1].Content)

	_, err = svc.SaveNote(ctx, "   ")
	assert.True(t, model.IsValidationError(err))
	_, err = svc.NoteOn(ctx, "5 Jan")
	assert.True(t, model.IsValidationError(err))
}

func TestJournal_DayFollowsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	svc, clock := newJournalService(t, loc)
	ctx := context.Background()

	// 23:30 UTC on the 5th is already the 6th at UTC+2
	clock.now = time.Date(2025, 1, 5, 23, 30, 0, 0, time.UTC)
	_, err := svc.SaveNote(ctx, "late thought")
	require.NoError(t, err)

	onFifth, err := svc.NoteOn(ctx, "2025-01-05")
	require.NoError(t, err)
	assert.Nil(t, onFifth)
	onSixth, err := svc.NoteOn(ctx, "2025-01-06")
	require.NoError(t, err)
	require.NotNil(t, onSixth)
	assert.Equal(t, "2025-01-06", svc.Today())
}

// brokenJournal fails every journal lookup.
type brokenJournal struct{ rowstore.Store }

func (brokenJournal) FindJournalNote(context.Context, time.Time, time.Time) (model.JournalNote, error) {
	return model.JournalNote{}, model.UpstreamError{Service: "row store", Err: errors.New("503")}
}

func TestJournal_LookupErrorBlocksSave(t *testing.T) {
	svc := NewJournalService(brokenJournal{}, time.UTC)
	_, err := svc.SaveNote(context.Background(), "text")
	require.Error(t, err)
	assert.True(t, model.IsUpstreamError(err))
}
