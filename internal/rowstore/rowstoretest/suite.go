package rowstoretest

import (
	"context"
	"testing"
	"time"

	"github.com/Fau-Caudullo/happyapp/internal/model"
	"github.com/Fau-Caudullo/happyapp/internal/rowstore"
)

// Run exercises a minimal compliance suite against a rowstore.Store implementation.
// makeStore must return an empty, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) rowstore.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	if err := s.HealthPing(ctx); err != nil {
		t.Fatalf("HealthPing: %v", err)
	}

	// Medications
	if meds, err := s.ListMedications(ctx); err != nil || len(meds) != 0 {
		t.Fatalf("ListMedications empty: n=%d err=%v", len(meds), err)
	}
	evening, err := s.InsertMedication(ctx, "Melatonin", "1mg", "21:30:00")
	if err != nil || evening.ID == 0 || evening.Name != "Melatonin" {
		t.Fatalf("InsertMedication: got=%+v err=%v", evening, err)
	}
	morning, err := s.InsertMedication(ctx, "Vitamin D", "", "08:00:00")
	if err != nil {
		t.Fatalf("InsertMedication: %v", err)
	}
	if morning.LastTakenDate != nil {
		t.Fatalf("new medication should not be taken: %+v", morning)
	}
	meds, err := s.ListMedications(ctx)
	if err != nil || len(meds) != 2 || meds[0].ID != morning.ID || meds[1].ID != evening.ID {
		t.Fatalf("ListMedications order: got=%+v err=%v", meds, err)
	}

	date := "2025-01-05"
	upd, err := s.UpdateMedication(ctx, morning.ID, model.MedicationUpdate{LastTakenDate: &date})
	if err != nil || !upd.TakenOn(date) || upd.TakenOn("2025-01-06") {
		t.Fatalf("UpdateMedication taken: got=%+v err=%v", upd, err)
	}
	upd, err = s.UpdateMedication(ctx, morning.ID, model.MedicationUpdate{ClearLastTaken: true})
	if err != nil || upd.LastTakenDate != nil {
		t.Fatalf("UpdateMedication clear: got=%+v err=%v", upd, err)
	}
	name := "Vitamin D3"
	if upd, err = s.UpdateMedication(ctx, morning.ID, model.MedicationUpdate{Name: &name}); err != nil || upd.Name != name || upd.ScheduleTime != "08:00:00" {
		t.Fatalf("UpdateMedication name: got=%+v err=%v", upd, err)
	}
	if _, err := s.UpdateMedication(ctx, 999999, model.MedicationUpdate{Name: &name}); !model.IsNotFoundError(err) {
		t.Fatalf("UpdateMedication missing: want NotFound, got %v", err)
	}

	if err := s.DeleteMedication(ctx, evening.ID); err != nil {
		t.Fatalf("DeleteMedication: %v", err)
	}
	if err := s.DeleteMedication(ctx, evening.ID); !model.IsNotFoundError(err) {
		t.Fatalf("DeleteMedication twice: want NotFound, got %v", err)
	}
	if meds, _ := s.ListMedications(ctx); len(meds) != 1 {
		t.Fatalf("ListMedications after delete: %+v", meds)
	}

	// Metrics
	pair, err := s.InsertMetrics(ctx, []model.NewMetric{
		{Type: model.MetricSystolic, Value: 120, Unit: "mmHg"},
		{Type: model.MetricDiastolic, Value: 80, Unit: "mmHg"},
	})
	if err != nil || len(pair) != 2 || pair[0].ID == 0 || pair[1].Type != model.MetricDiastolic {
		t.Fatalf("InsertMetrics: got=%+v err=%v", pair, err)
	}
	w, err := s.InsertMetric(ctx, model.MetricWeight, 71.5, "kg")
	if err != nil || w.Value != 71.5 || w.CreatedAt.IsZero() {
		t.Fatalf("InsertMetric: got=%+v err=%v", w, err)
	}
	all, err := s.ListMetrics(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("ListMetrics all: n=%d err=%v", len(all), err)
	}
	weights, err := s.ListMetrics(ctx, model.MetricWeight)
	if err != nil || len(weights) != 1 || weights[0].ID != w.ID {
		t.Fatalf("ListMetrics weight: got=%+v err=%v", weights, err)
	}
	if _, err := s.InsertMetrics(ctx, nil); !model.IsValidationError(err) {
		t.Fatalf("InsertMetrics empty: want validation error, got %v", err)
	}

	// Moods
	if _, err := s.InsertMood(ctx, "neutro"); err != nil {
		t.Fatalf("InsertMood: %v", err)
	}
	if _, err := s.InsertMood(ctx, "stressato"); err != nil {
		t.Fatalf("InsertMood: %v", err)
	}
	moods, err := s.ListMoods(ctx)
	if err != nil || len(moods) != 2 || moods[0].Mood != "stressato" {
		t.Fatalf("ListMoods newest first: got=%+v err=%v", moods, err)
	}

	// Journal notes
	if notes, err := s.ListJournalNotes(ctx); err != nil || len(notes) != 0 {
		t.Fatalf("ListJournalNotes empty: n=%d err=%v", len(notes), err)
	}
	first, err := s.UpsertJournalNote(ctx, model.JournalNote{Content: "quiet morning"})
	if err != nil || first.ID == 0 || first.CreatedAt.IsZero() {
		t.Fatalf("UpsertJournalNote insert: got=%+v err=%v", first, err)
	}
	edited, err := s.UpsertJournalNote(ctx, model.JournalNote{ID: first.ID, Content: "quiet morning, busy evening"})
	if err != nil || edited.ID != first.ID || edited.Content != "quiet morning, busy evening" || !edited.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("UpsertJournalNote update: got=%+v err=%v", edited, err)
	}
	found, err := s.FindJournalNote(ctx, first.CreatedAt.Add(-time.Second), first.CreatedAt.Add(time.Second))
	if err != nil || found.ID != first.ID || found.Content != edited.Content {
		t.Fatalf("FindJournalNote: got=%+v err=%v", found, err)
	}
	if _, err := s.FindJournalNote(ctx, first.CreatedAt.Add(time.Hour), first.CreatedAt.Add(2*time.Hour)); !model.IsNotFoundError(err) {
		t.Fatalf("FindJournalNote outside range: want NotFound, got %v", err)
	}
	if _, err := s.FindJournalNote(ctx, first.CreatedAt.Add(-time.Hour), first.CreatedAt); !model.IsNotFoundError(err) {
		t.Fatalf("FindJournalNote upper bound is exclusive: want NotFound, got %v", err)
	}
	second, err := s.UpsertJournalNote(ctx, model.JournalNote{Content: "another day"})
	if err != nil {
		t.Fatalf("UpsertJournalNote: %v", err)
	}
	notes, err := s.ListJournalNotes(ctx)
	if err != nil || len(notes) != 2 || notes[0].ID != second.ID || notes[1].ID != first.ID {
		t.Fatalf("ListJournalNotes newest first: got=%+v err=%v", notes, err)
	}
}
