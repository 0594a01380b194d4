package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/awaistahir/smart-boiler/internal/boiler"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestConfigRoundTrip(t *testing.T) {
	st := newTestStore(t)

	if _, err := st.GetConfig(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConfig() on empty store error = %v, want ErrNotFound", err)
	}

	cfg := &boiler.Config{
		CapacityLiters:     150,
		HeatingPowerKw:     3.0,
		DesiredTempC:       40,
		Latitude:           49.19,
		Longitude:          16.61,
		CityName:           "Brno",
		AvgShowerLiters:    50,
		AvgShowerMinutes:   8,
		DefaultPeopleCount: 2,
		OnboardingComplete: true,
	}
	if err := st.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	got, err := st.GetConfig()
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if got.CapacityLiters != 150 || got.HeatingPowerKw != 3.0 || got.CityName != "Brno" {
		t.Errorf("GetConfig() = %+v, round trip mismatch", got)
	}
	if !got.OnboardingComplete {
		t.Error("OnboardingComplete = false, want true")
	}

	// Second save replaces the single record.
	cfg.DesiredTempC = 45
	if err := st.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() update error = %v", err)
	}
	got, _ = st.GetConfig()
	if got.DesiredTempC != 45 {
		t.Errorf("DesiredTempC = %d, want 45 after update", got.DesiredTempC)
	}
}

func TestBaselineReplace(t *testing.T) {
	st := newTestStore(t)

	set := []boiler.Baseline{
		{DayType: boiler.DaySunny, DurationMinutes: 20},
		{DayType: boiler.DayPartlyCloudy, DurationMinutes: 40},
		{DayType: boiler.DayCloudy, DurationMinutes: 60},
	}
	if err := st.ReplaceBaselines(set); err != nil {
		t.Fatalf("ReplaceBaselines() error = %v", err)
	}

	adjusted := boiler.AdjustBaselines(boiler.RatingTooCold, boiler.DaySunny, set)
	if err := st.ReplaceBaselines(adjusted); err != nil {
		t.Fatalf("ReplaceBaselines() after adjust error = %v", err)
	}

	got, err := st.GetBaselines()
	if err != nil {
		t.Fatalf("GetBaselines() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d baselines, want 3", len(got))
	}
	for _, b := range got {
		if b.DayType == boiler.DaySunny && b.DurationMinutes != 30 {
			t.Errorf("SUNNY = %d minutes, want 30", b.DurationMinutes)
		}
	}
}

func TestScheduleRoundTrip(t *testing.T) {
	st := newTestStore(t)

	sched := &boiler.Schedule{
		Date:                "2026-03-14",
		ScheduledTime:       "18:00",
		DayType:             boiler.DaySunny,
		CloudCoverPercent:   15,
		PeopleCount:         2,
		HeatingRequired:     true,
		HeatingMinutes:      45,
		HeatingStartTime:    "17:15",
		EstimatedSolarTempC: 25,
		EstimatedFinalTempC: 40.1,
		WaterNeededLiters:   100,
	}
	id, err := st.InsertSchedule(sched)
	if err != nil {
		t.Fatalf("InsertSchedule() error = %v", err)
	}

	got, err := st.GetSchedule(id)
	if err != nil {
		t.Fatalf("GetSchedule() error = %v", err)
	}
	if got.HeatingStartTime != "17:15" || got.HeatingMinutes != 45 || !got.HeatingRequired {
		t.Errorf("GetSchedule() = %+v, heating plan mismatch", got)
	}

	// No-heating occurrence stores a NULL start time.
	noHeat := &boiler.Schedule{Date: "2026-03-14", ScheduledTime: "12:00", PeopleCount: 1}
	id2, err := st.InsertSchedule(noHeat)
	if err != nil {
		t.Fatalf("InsertSchedule() error = %v", err)
	}
	got2, _ := st.GetSchedule(id2)
	if got2.HeatingStartTime != "" {
		t.Errorf("HeatingStartTime = %q, want empty", got2.HeatingStartTime)
	}

	byDate, err := st.GetSchedulesForDate("2026-03-14")
	if err != nil {
		t.Fatalf("GetSchedulesForDate() error = %v", err)
	}
	if len(byDate) != 2 {
		t.Fatalf("got %d schedules for date, want 2", len(byDate))
	}
	if byDate[0].ScheduledTime != "12:00" {
		t.Errorf("first schedule at %s, want time ordering from 12:00", byDate[0].ScheduledTime)
	}

	if _, err := st.GetSchedule(9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSchedule(9999) error = %v, want ErrNotFound", err)
	}
}

func TestRecurringTemplatesAndOccurrences(t *testing.T) {
	st := newTestStore(t)

	tplRow := &boiler.Schedule{
		Date:              "2026-03-02",
		ScheduledTime:     "18:30",
		PeopleCount:       2,
		RecurringTemplate: true,
		RecurrenceGroupID: "group-a",
		RecurrenceDays:    []time.Weekday{time.Monday, time.Wednesday},
		RecurringEnabled:  true,
	}
	if _, err := st.InsertSchedule(tplRow); err != nil {
		t.Fatalf("InsertSchedule(template) error = %v", err)
	}

	configs, err := st.GetRecurringSchedules()
	if err != nil {
		t.Fatalf("GetRecurringSchedules() error = %v", err)
	}
	if len(configs) != 1 {
		t.Fatalf("got %d recurring configs, want 1", len(configs))
	}
	tpl := configs[0]
	if tpl.GroupID != "group-a" || tpl.TimeOfDay != "18:30" || !tpl.Enabled {
		t.Errorf("config = %+v, template mismatch", tpl)
	}
	if len(tpl.Days) != 2 || tpl.Days[0] != time.Monday {
		t.Errorf("Days = %v, want [Monday Wednesday]", tpl.Days)
	}

	from := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	created, err := boiler.SyncRecurringSchedules(st, configs, from, 13)
	if err != nil {
		t.Fatalf("SyncRecurringSchedules() error = %v", err)
	}
	if len(created) != 4 {
		t.Fatalf("created %d occurrences, want 4", len(created))
	}

	// Template rows never show up as executable occurrences.
	byDate, err := st.GetSchedulesForDate("2026-03-02")
	if err != nil {
		t.Fatalf("GetSchedulesForDate() error = %v", err)
	}
	if len(byDate) != 1 || byDate[0].RecurringTemplate {
		t.Errorf("got %d occurrences on 2026-03-02 (template=%v), want 1 non-template",
			len(byDate), len(byDate) > 0 && byDate[0].RecurringTemplate)
	}

	again, err := boiler.SyncRecurringSchedules(st, configs, from, 13)
	if err != nil {
		t.Fatalf("second sync error = %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second sync created %d occurrences, want 0", len(again))
	}

	// Disabling drops occurrences from the cutoff date on, keeps history.
	if err := st.SetRecurringEnabled("group-a", false, "2026-03-09"); err != nil {
		t.Fatalf("SetRecurringEnabled() error = %v", err)
	}
	early, _ := st.GetSchedulesForDate("2026-03-04")
	if len(early) != 1 {
		t.Errorf("pre-cutoff occurrence removed, want it kept")
	}
	late, _ := st.GetSchedulesForDate("2026-03-11")
	if len(late) != 0 {
		t.Errorf("post-cutoff occurrence survived disable")
	}

	if err := st.DeleteRecurringGroup("group-a"); err != nil {
		t.Fatalf("DeleteRecurringGroup() error = %v", err)
	}
	templates, _ := st.GetRecurringTemplates()
	if len(templates) != 0 {
		t.Errorf("template survived group delete")
	}
}

func TestFeedbackFlow(t *testing.T) {
	st := newTestStore(t)

	id, err := st.InsertSchedule(&boiler.Schedule{
		Date:           "2026-03-14",
		ScheduledTime:  "08:00",
		DayType:        boiler.DayCloudy,
		PeopleCount:    2,
		HeatingMinutes: 50,
	})
	if err != nil {
		t.Fatalf("InsertSchedule() error = %v", err)
	}

	pending, err := st.SchedulesNeedingFeedback("2026-03-14", "09:00")
	if err != nil {
		t.Fatalf("SchedulesNeedingFeedback() error = %v", err)
	}
	if len(pending) != 1 || pending[0] != id {
		t.Fatalf("pending = %v, want [%d]", pending, id)
	}

	// A shower still in the future is not pending.
	future, _ := st.SchedulesNeedingFeedback("2026-03-14", "07:00")
	if len(future) != 0 {
		t.Errorf("future shower listed as pending feedback")
	}

	if _, err := st.FeedbackForSchedule(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("FeedbackForSchedule() before insert error = %v, want ErrNotFound", err)
	}

	_, err = st.InsertFeedback(&boiler.FeedbackEntry{
		ScheduleID:        id,
		Date:              "2026-03-14",
		DayType:           boiler.DayCloudy,
		Rating:            boiler.RatingTooCold,
		HeatingMinutes:    50,
		CloudCoverPercent: 80,
	})
	if err != nil {
		t.Fatalf("InsertFeedback() error = %v", err)
	}

	fb, err := st.FeedbackForSchedule(id)
	if err != nil {
		t.Fatalf("FeedbackForSchedule() error = %v", err)
	}
	if fb.Rating != boiler.RatingTooCold || fb.DayType != boiler.DayCloudy {
		t.Errorf("feedback = %+v, round trip mismatch", fb)
	}

	pending, _ = st.SchedulesNeedingFeedback("2026-03-14", "09:00")
	if len(pending) != 0 {
		t.Errorf("rated shower still listed as pending")
	}

	recent, err := st.RecentFeedback(0)
	if err != nil {
		t.Fatalf("RecentFeedback() error = %v", err)
	}
	if len(recent) != 1 {
		t.Errorf("got %d recent entries, want 1", len(recent))
	}
}
