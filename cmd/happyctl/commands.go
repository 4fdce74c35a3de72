package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// resolveDate returns the --date flag, today's local date when empty.
func resolveDate() string {
	if dateFlag != "" {
		return dateFlag
	}
	return time.Now().Format("2006-01-02")
}

func dayCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "day", Short: "Show day bundles"}
	for _, sub := range []struct {
		use, short string
		shift      int
	}{
		{"show", "Show the day", 0},
		{"next", "Show the day after --date", 1},
		{"prev", "Show the day before --date", -1},
	} {
		shift := sub.shift
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := newClient()
				if err != nil {
					return err
				}
				return runDay(cmd.Context(), c, resolveDate(), shift, cmd.OutOrStdout())
			},
		})
	}
	return cmd
}

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "task", Short: "Manage tasks"}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			return runTaskAdd(cmd.Context(), c, resolveDate(), args[0], cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Toggle a task's completed flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			return runTaskToggle(cmd.Context(), c, resolveDate(), id, cmd.OutOrStdout())
		},
	})
	return cmd
}

func noteCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "note", Short: "Manage notes"}
	add := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			c, err := newClient()
			if err != nil {
				return err
			}
			return runNoteAdd(cmd.Context(), c, resolveDate(), title, args[0], cmd.OutOrStdout())
		},
	}
	add.Flags().StringP("title", "t", "", "Note title")
	cmd.AddCommand(add)
	return cmd
}

func factCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fact",
		Short: "Show the fact, saint and proverb of the day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			return runFact(cmd.Context(), c, resolveDate(), cmd.OutOrStdout())
		},
	}
}

func medsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "meds", Short: "Medication reminders"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List medications and whether they were taken",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			return runMedsList(cmd.Context(), c, resolveDate(), cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark or unmark a medication as taken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid medication id %q", args[0])
			}
			c, err := newClient()
			if err != nil {
				return err
			}
			return runMedsToggle(cmd.Context(), c, id, resolveDate(), cmd.OutOrStdout())
		},
	})
	return cmd
}

func journalCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "journal", Short: "Read or write the journal note of the day"}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the journal note of --date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			return runJournalShow(cmd.Context(), c, resolveDate(), cmd.OutOrStdout())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "write <content>",
		Short: "Write today's journal note, replacing an earlier one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			return runJournalWrite(cmd.Context(), c, args[0], cmd.OutOrStdout())
		},
	})
	return cmd
}
