package boiler

import (
	"fmt"
	"time"
)

// DefaultSyncDaysAhead is the rolling materialization horizon.
const DefaultSyncDaysAhead = 30

// OccurrenceStore is the slice of the schedule store the materializer needs.
type OccurrenceStore interface {
	// HasOccurrence reports whether a non-template occurrence already exists
	// for (date, timeOfDay, groupID).
	HasOccurrence(date, timeOfDay, groupID string) (bool, error)

	// InsertOccurrence persists a materialized occurrence and returns its id.
	InsertOccurrence(s *Schedule) (int64, error)
}

// SyncRecurringSchedules expands enabled templates into concrete occurrences
// for every matching weekday from fromDate through fromDate+daysAhead
// inclusive. Existing occurrences are left alone, so re-running with the same
// inputs creates nothing. Returns the newly created occurrences.
func SyncRecurringSchedules(st OccurrenceStore, templates []RecurringSchedule, fromDate time.Time, daysAhead int) ([]Schedule, error) {
	if daysAhead <= 0 {
		daysAhead = DefaultSyncDaysAhead
	}

	var created []Schedule
	for _, tpl := range templates {
		if !tpl.Enabled || tpl.GroupID == "" || len(tpl.Days) == 0 {
			continue
		}

		wanted := make(map[time.Weekday]bool, len(tpl.Days))
		for _, d := range tpl.Days {
			wanted[d] = true
		}

		for offset := 0; offset <= daysAhead; offset++ {
			day := fromDate.AddDate(0, 0, offset)
			if !wanted[day.Weekday()] {
				continue
			}

			date := day.Format(DateLayout)
			exists, err := st.HasOccurrence(date, tpl.TimeOfDay, tpl.GroupID)
			if err != nil {
				return created, fmt.Errorf("checking occurrence %s %s: %w", date, tpl.TimeOfDay, err)
			}
			if exists {
				continue
			}

			// Occurrences are snapshots of the template at materialization
			// time; later template edits do not rewrite them.
			occ := Schedule{
				Date:              date,
				ScheduledTime:     tpl.TimeOfDay,
				PeopleCount:       tpl.PeopleCount,
				RecurrenceGroupID: tpl.GroupID,
				RecurrenceDays:    tpl.Days,
				RecurringEnabled:  true,
			}
			id, err := st.InsertOccurrence(&occ)
			if err != nil {
				return created, fmt.Errorf("inserting occurrence %s %s: %w", date, tpl.TimeOfDay, err)
			}
			occ.ID = id
			created = append(created, occ)
		}
	}
	return created, nil
}
