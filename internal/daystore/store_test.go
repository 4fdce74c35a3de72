package daystore

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fau-Caudullo/happyapp/internal/blob"
	"github.com/Fau-Caudullo/happyapp/internal/model"
)

func newTestStore() (*Store, *blob.Memory) {
	mem := blob.NewMemory()
	return New(mem, "happyapp", zerolog.Nop()), mem
}

// sequentialStore hides SetMany so MoveEvent takes the two-write path.
type sequentialStore struct{ blob.Store }

// failingStore fails Set for one key and Get with a configurable error.
type failingStore struct {
	blob.Store
	failSetKey string
	getErr     error
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if key == f.failSetKey {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Store.Get(ctx, key)
}

// flakyStore fails the next failGets[key] reads of key.
type flakyStore struct {
	blob.Store
	mu       sync.Mutex
	failGets map[string]int
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	if f.failGets == nil {
		f.failGets = map[string]int{}
	}
	n := f.failGets[key]
	if n > 0 {
		f.failGets[key] = n - 1
	}
	f.mu.Unlock()
	if n > 0 {
		return nil, errors.New("connection reset")
	}
	return f.Store.Get(ctx, key)
}

func sampleBundle(date string) model.DayBundle {
	return model.DayBundle{
		Date:  date,
		Tasks: []model.Task{{ID: 1, Text: "buy milk"}, {ID: 2, Text: "call mum", Completed: true}},
		Notes: []model.Note{{ID: 3, Title: "idea", Content: "é ✓ 日本"}},
		Events: []model.Event{{
			ID: 4, Title: "dentist", Date: date, StartTime: "09:00", EndTime: "10:00",
			Location: "Via Roma 1", Attendees: "me", Link: "https://example.test", Color: "#ff0000",
		}},
		Diary: model.Diary{
			Text:  "# Great day\nwent *running*",
			Media: []model.MediaItem{{Type: model.MediaPhoto, URL: "https://img.test/1.jpg", Name: "run"}},
		},
		Status: model.Status{Mood: "😇", Weather: "🌧️", Saint: "San Marco", Proverb: "Chi dorme non piglia pesci."},
	}
}

func TestKey(t *testing.T) {
	s, _ := newTestStore()
	assert.Equal(t, "happyapp_2025-01-05", s.Key("2025-01-05"))

	other := New(blob.NewMemory(), "", zerolog.Nop())
	assert.Equal(t, "happyapp_2025-01-05", other.Key("2025-01-05"))
}

func TestLoad_EmptyDefault(t *testing.T) {
	s, _ := newTestStore()
	got := s.Load(context.Background(), "2031-07-19")

	require.NotNil(t, got.Tasks)
	require.NotNil(t, got.Notes)
	require.NotNil(t, got.Events)
	require.NotNil(t, got.Diary.Media)
	assert.Empty(t, got.Tasks)
	assert.Empty(t, got.Notes)
	assert.Empty(t, got.Events)
	assert.Empty(t, got.Diary.Text)
	assert.Equal(t, model.DefaultStatus(), got.Status)
	assert.Equal(t, "2031-07-19", got.Date)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	bundles := []model.DayBundle{
		sampleBundle("2025-01-05"),
		model.NewDayBundle("2024-02-29"),
		randomBundle(rand.New(rand.NewSource(1)), "1999-12-31"),
		randomBundle(rand.New(rand.NewSource(2)), "2000-01-01"),
		randomBundle(rand.New(rand.NewSource(3)), "2025-06-15"),
	}
	for _, b := range bundles {
		t.Run(b.Date, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, b.Date, b))
			got := s.Load(ctx, b.Date)
			if diff := cmp.Diff(b, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSave_StampsDateAndRejectsBadDate(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	b := sampleBundle("1970-01-01")
	require.NoError(t, s.Save(ctx, "2025-03-01", b))
	assert.Equal(t, "2025-03-01", s.Load(ctx, "2025-03-01").Date)

	err := s.Save(ctx, "01/03/2025", b)
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))
}

func TestLoad_Idempotent(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "2025-01-05", sampleBundle("2025-01-05")))

	first := s.Load(ctx, "2025-01-05")
	second := s.Load(ctx, "2025-01-05")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("consecutive loads differ (-first +second):\n%s", diff)
	}

	emptyA := s.Load(ctx, "2025-01-09")
	emptyB := s.Load(ctx, "2025-01-09")
	if diff := cmp.Diff(emptyA, emptyB); diff != "" {
		t.Fatalf("consecutive empty loads differ:\n%s", diff)
	}
}

func TestScenario_TaskStaysOnItsDay(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	b := model.NewDayBundle("2025-01-05")
	b.Tasks = []model.Task{{ID: 1, Text: "buy milk", Completed: false}}
	require.NoError(t, s.Save(ctx, "2025-01-05", b))

	got := s.Load(ctx, "2025-01-05")
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, model.Task{ID: 1, Text: "buy milk", Completed: false}, got.Tasks[0])

	next := s.Load(ctx, "2025-01-06")
	assert.Empty(t, next.Tasks)
}

func TestLoad_PartialBundleKeepsDefaults(t *testing.T) {
	s, mem := newTestStore()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, s.Key("2025-01-05"),
		[]byte(`{"tasks":[{"id":1,"text":"old","completed":true}],"notes":null,"status":{"weather":"❄️"}}`)))

	got := s.Load(ctx, "2025-01-05")
	require.Len(t, got.Tasks, 1)
	assert.NotNil(t, got.Notes)
	assert.Empty(t, got.Notes)
	assert.NotNil(t, got.Events)
	assert.NotNil(t, got.Diary.Media)
	assert.Equal(t, model.DefaultMood, got.Status.Mood)
	assert.Equal(t, "❄️", got.Status.Weather)
}

func TestLoad_MalformedIsQuarantined(t *testing.T) {
	s, mem := newTestStore()
	ctx := context.Background()
	key := s.Key("2025-01-05")
	require.NoError(t, mem.Set(ctx, key, []byte(`{"tasks": [oops`)))

	got := s.Load(ctx, "2025-01-05")
	if diff := cmp.Diff(model.NewDayBundle("2025-01-05"), got); diff != "" {
		t.Fatalf("malformed load should give defaults:\n%s", diff)
	}

	q, err := mem.Get(ctx, key+".corrupt")
	require.NoError(t, err)
	assert.Equal(t, `{"tasks": [oops`, string(q))

	// the quarantined copy is not reported as a date
	dates, err := s.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-05"}, dates)
}

func TestLoad_StoreErrorFallsBack(t *testing.T) {
	f := &failingStore{Store: blob.NewMemory(), getErr: errors.New("io error")}
	s := New(f, "happyapp", zerolog.Nop())
	got := s.Load(context.Background(), "2025-01-05")
	if diff := cmp.Diff(model.NewDayBundle("2025-01-05"), got); diff != "" {
		t.Fatalf("store error should give defaults:\n%s", diff)
	}
}

func TestMoveEvent(t *testing.T) {
	cases := []struct {
		name  string
		store func() blob.Store
	}{
		{"batch", func() blob.Store { return blob.NewMemory() }},
		{"sequential", func() blob.Store { return sequentialStore{blob.NewMemory()} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			s := New(tc.store(), "happyapp", zerolog.Nop())

			d1 := sampleBundle("2025-01-05")
			keep := model.Event{ID: 99, Title: "stays", Date: "2025-01-05"}
			d1.Events = append(d1.Events, keep)
			d2 := sampleBundle("2025-01-06")
			d2.Events = nil
			d2.Tasks = []model.Task{{ID: 7, Text: "other day"}}
			require.NoError(t, s.Save(ctx, "2025-01-05", d1))
			require.NoError(t, s.Save(ctx, "2025-01-06", d2))

			moved := d1.Events[0]
			require.NoError(t, s.MoveEvent(ctx, "2025-01-05", "2025-01-06", moved))

			got1 := s.Load(ctx, "2025-01-05")
			got2 := s.Load(ctx, "2025-01-06")
			assert.Equal(t, -1, got1.EventIndex(moved.ID))
			idx := got2.EventIndex(moved.ID)
			require.GreaterOrEqual(t, idx, 0)
			assert.Equal(t, "2025-01-06", got2.Events[idx].Date)

			// all other fields unchanged
			want1 := d1
			want1.Events = []model.Event{keep}
			if diff := cmp.Diff(want1, got1); diff != "" {
				t.Fatalf("source day changed (-want +got):\n%s", diff)
			}
			want2 := d2
			moved.Date = "2025-01-06"
			want2.Events = []model.Event{moved}
			if diff := cmp.Diff(want2, got2); diff != "" {
				t.Fatalf("target day changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMoveEvent_MissingEvent(t *testing.T) {
	s, _ := newTestStore()
	err := s.MoveEvent(context.Background(), "2025-01-05", "2025-01-06", model.Event{ID: 42})
	require.Error(t, err)
	assert.True(t, model.IsNotFoundError(err))
}

func TestMoveEvent_SameDayUpdatesInPlace(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	b := sampleBundle("2025-01-05")
	require.NoError(t, s.Save(ctx, "2025-01-05", b))

	ev := b.Events[0]
	ev.Title = "dentist (moved hour)"
	require.NoError(t, s.MoveEvent(ctx, "2025-01-05", "2025-01-05", ev))

	got := s.Load(ctx, "2025-01-05")
	require.Len(t, got.Events, 1)
	assert.Equal(t, "dentist (moved hour)", got.Events[0].Title)
}

func TestMoveEvent_PartialWriteIsReported(t *testing.T) {
	mem := blob.NewMemory()
	f := &failingStore{Store: mem}
	s := New(sequentialStore{f}, "happyapp", zerolog.Nop())
	ctx := context.Background()

	b := sampleBundle("2025-01-05")
	require.NoError(t, s.Save(ctx, "2025-01-05", b))
	f.failSetKey = s.Key("2025-01-05")

	err := s.MoveEvent(ctx, "2025-01-05", "2025-01-06", b.Events[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partial write")

	assert.ErrorIs(t, err, ErrPartialWrite)

	// the event is duplicated, never lost
	src := s.Load(ctx, "2025-01-05")
	dst := s.Load(ctx, "2025-01-06")
	assert.GreaterOrEqual(t, src.EventIndex(b.Events[0].ID), 0)
	assert.GreaterOrEqual(t, dst.EventIndex(b.Events[0].ID), 0)
}

func TestMoveEvent_ReadErrorLeavesBothDaysIntact(t *testing.T) {
	for _, failDate := range []string{"2025-01-05", "2025-01-06"} {
		t.Run(failDate, func(t *testing.T) {
			mem := blob.NewMemory()
			f := &flakyStore{Store: mem, failGets: map[string]int{}}
			s := New(f, "happyapp", zerolog.Nop())
			ctx := context.Background()

			src := sampleBundle("2025-01-05")
			dst := sampleBundle("2025-01-06")
			dst.Events = []model.Event{}
			require.NoError(t, s.Save(ctx, "2025-01-05", src))
			require.NoError(t, s.Save(ctx, "2025-01-06", dst))

			f.failGets[s.Key(failDate)] = 1
			err := s.MoveEvent(ctx, "2025-01-05", "2025-01-06", src.Events[0])
			require.Error(t, err)
			assert.False(t, model.IsNotFoundError(err))

			if diff := cmp.Diff(src, s.Load(ctx, "2025-01-05")); diff != "" {
				t.Fatalf("source day changed (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(dst, s.Load(ctx, "2025-01-06")); diff != "" {
				t.Fatalf("target day changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadForUpdate(t *testing.T) {
	mem := blob.NewMemory()
	f := &flakyStore{Store: mem, failGets: map[string]int{}}
	s := New(f, "happyapp", zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "2025-01-05", sampleBundle("2025-01-05")))

	f.failGets[s.Key("2025-01-05")] = 1
	_, err := s.LoadForUpdate(ctx, "2025-01-05")
	require.Error(t, err)

	got, err := s.LoadForUpdate(ctx, "2025-01-05")
	require.NoError(t, err)
	assert.Len(t, got.Tasks, 2)

	missing, err := s.LoadForUpdate(ctx, "2025-01-06")
	require.NoError(t, err)
	assert.Empty(t, missing.Tasks)

	_, err = s.LoadForUpdate(ctx, "06/01/2025")
	assert.True(t, model.IsValidationError(err))
}

func TestSaveMany(t *testing.T) {
	cases := []struct {
		name  string
		store func() blob.Store
	}{
		{"batch", func() blob.Store { return blob.NewMemory() }},
		{"sequential", func() blob.Store { return sequentialStore{blob.NewMemory()} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			s := New(tc.store(), "happyapp", zerolog.Nop())
			in := map[string]model.DayBundle{
				"2025-01-05": sampleBundle("2025-01-05"),
				"2025-01-06": model.NewDayBundle("2025-01-06"),
			}
			require.NoError(t, s.SaveMany(ctx, in, "2025-01-05"))
			for date, want := range in {
				if diff := cmp.Diff(want, s.Load(ctx, date)); diff != "" {
					t.Fatalf("%s mismatch (-want +got):\n%s", date, diff)
				}
			}

			err := s.SaveMany(ctx, map[string]model.DayBundle{"bad": model.NewDayBundle("bad")}, "bad")
			assert.True(t, model.IsValidationError(err))
		})
	}
}

func TestSaveMany_WritesLastDateLast(t *testing.T) {
	mem := blob.NewMemory()
	f := &failingStore{Store: mem}
	s := New(sequentialStore{f}, "happyapp", zerolog.Nop())
	ctx := context.Background()
	f.failSetKey = s.Key("2025-01-01")

	err := s.SaveMany(ctx, map[string]model.DayBundle{
		"2025-01-01": model.NewDayBundle("2025-01-01"),
		"2025-01-02": model.NewDayBundle("2025-01-02"),
		"2025-01-03": model.NewDayBundle("2025-01-03"),
	}, "2025-01-01")
	require.ErrorIs(t, err, ErrPartialWrite)

	dates, err := s.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-02", "2025-01-03"}, dates)
}

func TestSave_RejectsInvalidUTF8(t *testing.T) {
	s, mem := newTestStore()
	ctx := context.Background()

	b := sampleBundle("2025-01-05")
	b.Notes[0].Content = "caf\xe9"
	err := s.Save(ctx, "2025-01-05", b)
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))

	_, err = mem.Get(ctx, s.Key("2025-01-05"))
	assert.ErrorIs(t, err, blob.ErrNotFound)

	b = sampleBundle("2025-01-05")
	b.Diary.Text = string([]byte{0xff, 0xfe})
	assert.True(t, model.IsValidationError(s.Save(ctx, "2025-01-05", b)))
}

func TestRange(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "2024-12-31", sampleBundle("2024-12-31")))
	require.NoError(t, s.Save(ctx, "2025-01-02", sampleBundle("2025-01-02")))

	days, err := s.Range(ctx, "2024-12-30", "2025-01-02")
	require.NoError(t, err)
	require.Len(t, days, 4)
	for i, want := range []string{"2024-12-30", "2024-12-31", "2025-01-01", "2025-01-02"} {
		assert.Equal(t, want, days[i].Date)
	}
	assert.Empty(t, days[0].Events)
	assert.Len(t, days[1].Events, 1)
	assert.Len(t, days[3].Events, 1)

	_, err = s.Range(ctx, "2025-01-02", "2025-01-01")
	assert.True(t, model.IsValidationError(err))

	_, err = s.Range(ctx, "2024-01-01", "2025-01-02")
	assert.True(t, model.IsValidationError(err))

	full, err := s.Range(ctx, "2024-01-01", "2024-12-31")
	require.NoError(t, err)
	assert.Len(t, full, 366)
}

func TestDates(t *testing.T) {
	s, mem := newTestStore()
	ctx := context.Background()
	for _, d := range []string{"2025-02-01", "2024-11-30", "2025-01-15"} {
		require.NoError(t, s.Save(ctx, d, model.NewDayBundle(d)))
	}
	require.NoError(t, mem.Set(ctx, "otherapp_2025-01-01", []byte("{}")))

	dates, err := s.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-11-30", "2025-01-15", "2025-02-01"}, dates)
}

func randomBundle(r *rand.Rand, date string) model.DayBundle {
	b := model.NewDayBundle(date)
	for i, n := 0, r.Intn(5); i < n; i++ {
		b.Tasks = append(b.Tasks, model.Task{ID: r.Int63(), Text: fmt.Sprintf("task %d", r.Int()), Completed: r.Intn(2) == 1})
	}
	for i, n := 0, r.Intn(4); i < n; i++ {
		b.Notes = append(b.Notes, model.Note{ID: r.Int63(), Title: fmt.Sprintf("n%d", i), Content: fmt.Sprintf("%x", r.Int63())})
	}
	for i, n := 0, r.Intn(3); i < n; i++ {
		b.Events = append(b.Events, model.Event{ID: r.Int63(), Title: "ev", Date: date, StartTime: "08:00", Recurrence: "weekly"})
	}
	types := []model.MediaType{model.MediaPhoto, model.MediaVideo, model.MediaAudio, model.MediaLink}
	for i, n := 0, r.Intn(3); i < n; i++ {
		b.Diary.Media = append(b.Diary.Media, model.MediaItem{Type: types[r.Intn(len(types))], URL: fmt.Sprintf("https://m.test/%d", i)})
	}
	b.Diary.Text = fmt.Sprintf("diary %d", r.Int())
	b.Status.Mood = model.Moods[r.Intn(len(model.Moods))]
	b.Status.Weather = model.Weathers[r.Intn(len(model.Weathers))]
	return b
}
