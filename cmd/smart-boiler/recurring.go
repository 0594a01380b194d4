package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/awaistahir/smart-boiler/internal/boiler"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring shower schedules",
	}

	cmd.AddCommand(recurringAddCmd())
	cmd.AddCommand(recurringListCmd())
	cmd.AddCommand(recurringEnableCmd(true))
	cmd.AddCommand(recurringEnableCmd(false))
	cmd.AddCommand(recurringDeleteCmd())
	cmd.AddCommand(recurringSyncCmd())

	return cmd
}

func recurringAddCmd() *cobra.Command {
	var timeOfDay, days string
	var people int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a recurring schedule and materialize its occurrences",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if _, err := time.Parse(boiler.TimeLayout, timeOfDay); err != nil {
				return fmt.Errorf("invalid time format (use HH:MM): %w", err)
			}
			weekdays, err := parseWeekdays(days)
			if err != nil {
				return err
			}
			if people <= 0 {
				if cfg, err := st.GetConfig(); err == nil {
					people = cfg.DefaultPeopleCount
				} else {
					people = 1
				}
			}

			now := time.Now()
			tpl := boiler.RecurringSchedule{
				GroupID:     uuid.NewString(),
				StartDate:   now.Format(boiler.DateLayout),
				TimeOfDay:   timeOfDay,
				PeopleCount: people,
				Days:        weekdays,
				Enabled:     true,
			}

			templateRow := &boiler.Schedule{
				Date:              tpl.StartDate,
				ScheduledTime:     tpl.TimeOfDay,
				PeopleCount:       tpl.PeopleCount,
				RecurringTemplate: true,
				RecurrenceGroupID: tpl.GroupID,
				RecurrenceDays:    tpl.Days,
				RecurringEnabled:  true,
			}
			if _, err := st.InsertSchedule(templateRow); err != nil {
				return err
			}

			created, err := boiler.SyncRecurringSchedules(st, []boiler.RecurringSchedule{tpl}, now, boiler.DefaultSyncDaysAhead)
			if err != nil {
				return err
			}

			fmt.Printf("✓ Added recurring schedule %s\n", tpl.GroupID)
			fmt.Printf("  %s on %s for %d people\n", timeOfDay, days, people)
			fmt.Printf("  Materialized %d occurrences over the next %d days\n", len(created), boiler.DefaultSyncDaysAhead)
			return nil
		},
	}

	cmd.Flags().StringVarP(&timeOfDay, "time", "t", "18:00", "Shower time (HH:MM)")
	cmd.Flags().StringVarP(&days, "days", "w", "", "Comma-separated weekdays, 1=Mon..7=Sun (required)")
	cmd.Flags().IntVarP(&people, "people", "p", 0, "People count (default from config)")
	cmd.MarkFlagRequired("days")

	return cmd
}

func recurringListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			configs, err := st.GetRecurringSchedules()
			if err != nil {
				return err
			}
			if len(configs) == 0 {
				fmt.Println("No recurring schedules configured")
				return nil
			}

			fmt.Printf("%-38s %-8s %-8s %-24s %s\n", "GROUP", "TIME", "PEOPLE", "DAYS", "ENABLED")
			for _, c := range configs {
				names := make([]string, len(c.Days))
				for i, d := range c.Days {
					names[i] = d.String()[:3]
				}
				enabled := "yes"
				if !c.Enabled {
					enabled = "no"
				}
				fmt.Printf("%-38s %-8s %-8d %-24s %s\n",
					c.GroupID, c.TimeOfDay, c.PeopleCount, strings.Join(names, ","), enabled)
			}
			return nil
		},
	}
}

func recurringEnableCmd(enable bool) *cobra.Command {
	use, short := "enable <group-id>", "Re-enable a recurring schedule"
	if !enable {
		use, short = "disable <group-id>", "Disable a recurring schedule and drop its future occurrences"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			today := time.Now().Format(boiler.DateLayout)
			if err := st.SetRecurringEnabled(args[0], enable, today); err != nil {
				return err
			}
			if enable {
				fmt.Printf("✓ Enabled %s (run 'smart-boiler recurring sync' to rematerialize)\n", args[0])
			} else {
				fmt.Printf("✓ Disabled %s and removed its future occurrences\n", args[0])
			}
			return nil
		},
	}
}

func recurringDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <group-id>",
		Short: "Delete a recurring schedule and everything it generated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteRecurringGroup(args[0]); err != nil {
				return err
			}
			fmt.Printf("✓ Deleted recurring schedule %s\n", args[0])
			return nil
		},
	}
}

func recurringSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Materialize occurrences for all enabled recurring schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			templates, err := st.GetRecurringSchedules()
			if err != nil {
				return err
			}
			created, err := boiler.SyncRecurringSchedules(st, templates, time.Now(), boiler.DefaultSyncDaysAhead)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Sync complete, %d new occurrences\n", len(created))
			return nil
		},
	}
}

// parseWeekdays parses "1,3,5" (1=Monday..7=Sunday) into time.Weekday values.
func parseWeekdays(csv string) ([]time.Weekday, error) {
	out := []time.Weekday{}
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 7 {
			return nil, fmt.Errorf("invalid weekday %q (use 1=Mon..7=Sun)", part)
		}
		out = append(out, time.Weekday(n%7))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one weekday required")
	}
	return out, nil
}
