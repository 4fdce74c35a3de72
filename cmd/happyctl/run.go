package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Fau-Caudullo/happyapp/client"
)

var _ dayAPI = (*client.Client)(nil)

// dayAPI is the subset of client.Client the commands use.
type dayAPI interface {
	Day(ctx context.Context, date string) (client.DayBundle, error)
	NextDay(ctx context.Context, date string) (client.DayBundle, error)
	PrevDay(ctx context.Context, date string) (client.DayBundle, error)
	AddTask(ctx context.Context, date, text string) (client.Task, error)
	ToggleTask(ctx context.Context, date string, id int64) (client.Task, error)
	AddNote(ctx context.Context, date, title, content string) (client.Note, error)
	Almanac(ctx context.Context, date string) (client.Almanac, error)
	Medications(ctx context.Context, date string) ([]client.MedicationStatus, error)
	ToggleMedication(ctx context.Context, id int64, date string) (client.MedicationStatus, error)
	JournalNote(ctx context.Context, date string) (*client.JournalNote, error)
	WriteJournal(ctx context.Context, content string) (client.JournalNote, error)
}

func check(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func runDay(ctx context.Context, c dayAPI, date string, shift int, out io.Writer) error {
	var (
		b   client.DayBundle
		err error
	)
	switch {
	case shift > 0:
		b, err = c.NextDay(ctx, date)
	case shift < 0:
		b, err = c.PrevDay(ctx, date)
	default:
		b, err = c.Day(ctx, date)
	}
	if err != nil {
		return err
	}
	printDay(out, b)
	return nil
}

func printDay(out io.Writer, b client.DayBundle) {
	fmt.Fprintf(out, "%s  %s %s\n", b.Date, b.Status.Mood, b.Status.Weather)
	if b.Status.Saint != "" {
		fmt.Fprintf(out, "%s - %s\n", b.Status.Saint, b.Status.Proverb)
	}
	fmt.Fprintf(out, "\nTasks (%d)\n", len(b.Tasks))
	for _, t := range b.Tasks {
		fmt.Fprintf(out, "  %s %d %s\n", check(t.Completed), t.ID, t.Text)
	}
	fmt.Fprintf(out, "\nEvents (%d)\n", len(b.Events))
	for _, e := range b.Events {
		fmt.Fprintf(out, "  %s-%s %s\n", e.StartTime, e.EndTime, e.Title)
	}
	fmt.Fprintf(out, "\nNotes (%d)\n", len(b.Notes))
	for _, n := range b.Notes {
		fmt.Fprintf(out, "  %d %s: %s\n", n.ID, n.Title, n.Content)
	}
	if b.Diary.Text != "" {
		fmt.Fprintf(out, "\nDiary\n  %s\n", b.Diary.Text)
	}
}

func runTaskAdd(ctx context.Context, c dayAPI, date, text string, out io.Writer) error {
	t, err := c.AddTask(ctx, date, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "added task %d on %s\n", t.ID, date)
	return nil
}

func runTaskToggle(ctx context.Context, c dayAPI, date string, id int64, out io.Writer) error {
	t, err := c.ToggleTask(ctx, date, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %d %s\n", check(t.Completed), t.ID, t.Text)
	return nil
}

func runNoteAdd(ctx context.Context, c dayAPI, date, title, content string, out io.Writer) error {
	n, err := c.AddNote(ctx, date, title, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "added note %d on %s\n", n.ID, date)
	return nil
}

func runFact(ctx context.Context, c dayAPI, date string, out io.Writer) error {
	a, err := c.Almanac(ctx, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n%s: %s\n\n%s\n%s\n", a.Date, a.Fact.Title, a.Fact.Text, a.Saint, a.Proverb)
	return nil
}

func runMedsList(ctx context.Context, c dayAPI, date string, out io.Writer) error {
	meds, err := c.Medications(ctx, date)
	if err != nil {
		return err
	}
	if len(meds) == 0 {
		fmt.Fprintln(out, "no medications")
		return nil
	}
	for _, m := range meds {
		fmt.Fprintf(out, "%s %d %s %s\n", check(m.Taken), m.ID, m.ScheduleTime, m.Name)
	}
	return nil
}

func runMedsToggle(ctx context.Context, c dayAPI, id int64, date string, out io.Writer) error {
	m, err := c.ToggleMedication(ctx, id, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %d %s\n", check(m.Taken), m.ID, m.Name)
	return nil
}

func runJournalShow(ctx context.Context, c dayAPI, date string, out io.Writer) error {
	n, err := c.JournalNote(ctx, date)
	if err != nil {
		return err
	}
	if n == nil {
		fmt.Fprintf(out, "no journal note on %s\n", date)
		return nil
	}
	fmt.Fprintf(out, "%s\n%s\n", date, n.Content)
	return nil
}

func runJournalWrite(ctx context.Context, c dayAPI, content string, out io.Writer) error {
	n, err := c.WriteJournal(ctx, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved journal note %d\n", n.ID)
	return nil
}
