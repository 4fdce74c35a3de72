package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fau-Caudullo/happyapp/client"
	"github.com/Fau-Caudullo/happyapp/internal/model"
)

type fakeAPI struct {
	days    map[string]client.DayBundle
	meds    []client.MedicationStatus
	journal map[string]client.JournalNote
	calls   []string
}

func (f *fakeAPI) Day(_ context.Context, date string) (client.DayBundle, error) {
	f.calls = append(f.calls, "day "+date)
	if b, ok := f.days[date]; ok {
		return b, nil
	}
	return model.NewDayBundle(date), nil
}

func (f *fakeAPI) NextDay(ctx context.Context, date string) (client.DayBundle, error) {
	f.calls = append(f.calls, "next "+date)
	return model.NewDayBundle("2025-01-06"), nil
}

func (f *fakeAPI) PrevDay(ctx context.Context, date string) (client.DayBundle, error) {
	f.calls = append(f.calls, "prev "+date)
	return model.NewDayBundle("2025-01-04"), nil
}

func (f *fakeAPI) AddTask(_ context.Context, date, text string) (client.Task, error) {
	return client.Task{ID: 42, Text: text}, nil
}

func (f *fakeAPI) ToggleTask(_ context.Context, date string, id int64) (client.Task, error) {
	return client.Task{ID: id, Text: "buy milk", Completed: true}, nil
}

func (f *fakeAPI) AddNote(_ context.Context, date, title, content string) (client.Note, error) {
	return client.Note{ID: 7, Title: title, Content: content}, nil
}

func (f *fakeAPI) Almanac(_ context.Context, date string) (client.Almanac, error) {
	return client.Almanac{Date: date, Saint: "San Simeone", Proverb: "Cogli l'attimo.", Fact: client.Fact{Title: "1914", Text: "Something happened."}}, nil
}

func (f *fakeAPI) Medications(_ context.Context, date string) ([]client.MedicationStatus, error) {
	return f.meds, nil
}

func (f *fakeAPI) ToggleMedication(_ context.Context, id int64, date string) (client.MedicationStatus, error) {
	for _, m := range f.meds {
		if m.ID == id {
			m.Taken = !m.Taken
			return m, nil
		}
	}
	return client.MedicationStatus{}, errors.New("http 404: Not Found")
}

func (f *fakeAPI) JournalNote(_ context.Context, date string) (*client.JournalNote, error) {
	if n, ok := f.journal[date]; ok {
		return &n, nil
	}
	return nil, nil
}

func (f *fakeAPI) WriteJournal(_ context.Context, content string) (client.JournalNote, error) {
	return client.JournalNote{ID: 3, Content: content}, nil
}

func TestRunJournal(t *testing.T) {
	api := &fakeAPI{journal: map[string]client.JournalNote{"2025-01-05": {ID: 3, Content: "quiet day"}}}
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, runJournalShow(ctx, api, "2025-01-05", &out))
	assert.Equal(t, "2025-01-05\nquiet day\n", out.String())

	out.Reset()
	require.NoError(t, runJournalShow(ctx, api, "2025-01-06", &out))
	assert.Equal(t, "no journal note on 2025-01-06\n", out.String())

	out.Reset()
	require.NoError(t, runJournalWrite(ctx, api, "new thought", &out))
	assert.Equal(t, "saved journal note 3\n", out.String())
}

func TestRunDay(t *testing.T) {
	b := model.NewDayBundle("2025-01-05")
	b.Tasks = []model.Task{{ID: 1, Text: "buy milk", Completed: true}}
	b.Events = []model.Event{{ID: 2, Title: "Dentist", StartTime: "10:00", EndTime: "11:00"}}
	api := &fakeAPI{days: map[string]client.DayBundle{"2025-01-05": b}}

	var out bytes.Buffer
	require.NoError(t, runDay(context.Background(), api, "2025-01-05", 0, &out))
	assert.Contains(t, out.String(), "2025-01-05  😊 ☀️")
	assert.Contains(t, out.String(), "[x] 1 buy milk")
	assert.Contains(t, out.String(), "10:00-11:00 Dentist")

	out.Reset()
	require.NoError(t, runDay(context.Background(), api, "2025-01-05", 1, &out))
	require.NoError(t, runDay(context.Background(), api, "2025-01-05", -1, &out))
	assert.Equal(t, []string{"day 2025-01-05", "next 2025-01-05", "prev 2025-01-05"}, api.calls)
}

func TestRunTaskAndNote(t *testing.T) {
	api := &fakeAPI{}
	var out bytes.Buffer
	require.NoError(t, runTaskAdd(context.Background(), api, "2025-01-05", "call mum", &out))
	require.NoError(t, runTaskToggle(context.Background(), api, "2025-01-05", 42, &out))
	require.NoError(t, runNoteAdd(context.Background(), api, "2025-01-05", "idea", "write more", &out))
	assert.Equal(t, "added task 42 on 2025-01-05\n[x] 42 buy milk\nadded note 7 on 2025-01-05\n", out.String())
}

func TestRunFact(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runFact(context.Background(), &fakeAPI{}, "2025-01-05", &out))
	assert.Equal(t, "2025-01-05\n1914: Something happened.\n\nSan Simeone\nCogli l'attimo.\n", out.String())
}

func TestRunMeds(t *testing.T) {
	med := client.MedicationStatus{Medication: model.Medication{ID: 3, Name: "Vitamin D", ScheduleTime: "08:00:00"}}
	api := &fakeAPI{meds: []client.MedicationStatus{med}}

	var out bytes.Buffer
	require.NoError(t, runMedsList(context.Background(), api, "2025-01-05", &out))
	assert.Equal(t, "[ ] 3 08:00:00 Vitamin D\n", out.String())

	out.Reset()
	require.NoError(t, runMedsToggle(context.Background(), api, 3, "2025-01-05", &out))
	assert.Equal(t, "[x] 3 Vitamin D\n", out.String())

	assert.Error(t, runMedsToggle(context.Background(), api, 9, "2025-01-05", &out))

	out.Reset()
	require.NoError(t, runMedsList(context.Background(), &fakeAPI{}, "2025-01-05", &out))
	assert.Equal(t, "no medications\n", out.String())
}
