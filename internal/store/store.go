package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/awaistahir/smart-boiler/internal/boiler"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store handles persistent storage using SQLite
type Store struct {
	db *sql.DB
}

// NewStore creates a new store and initializes the database
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// initialize creates the database schema
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS boiler_config (
		id INTEGER PRIMARY KEY,
		capacity_liters INTEGER NOT NULL,
		heating_power_kw REAL NOT NULL,
		desired_temp_c INTEGER DEFAULT 40,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		city_name TEXT DEFAULT '',
		avg_shower_liters INTEGER DEFAULT 50,
		avg_shower_minutes INTEGER DEFAULT 8,
		default_people_count INTEGER DEFAULT 2,
		onboarding_complete INTEGER DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS heating_baseline (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day_type TEXT NOT NULL UNIQUE,
		duration_minutes INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shower_schedule (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		scheduled_time TEXT NOT NULL,
		day_type TEXT DEFAULT '',
		cloud_cover INTEGER DEFAULT 0,
		people_count INTEGER NOT NULL,
		heating_required INTEGER DEFAULT 0,
		heating_minutes INTEGER DEFAULT 0,
		heating_start_time TEXT,
		est_solar_temp REAL DEFAULT 0,
		est_final_temp REAL DEFAULT 0,
		water_needed_liters INTEGER DEFAULT 0,
		is_recurring_template INTEGER DEFAULT 0,
		recurrence_group_id TEXT,
		recurrence_days TEXT,
		is_recurring_enabled INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		schedule_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		day_type TEXT NOT NULL,
		rating TEXT NOT NULL,
		heating_minutes INTEGER DEFAULT 0,
		cloud_cover INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (schedule_id) REFERENCES shower_schedule(id)
	);

	CREATE INDEX IF NOT EXISTS idx_schedule_date ON shower_schedule(date, is_recurring_template);
	CREATE INDEX IF NOT EXISTS idx_schedule_group ON shower_schedule(recurrence_group_id);
	CREATE INDEX IF NOT EXISTS idx_feedback_schedule ON feedback(schedule_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Boiler config ---

// SaveConfig saves or updates the single boiler configuration record.
func (s *Store) SaveConfig(c *boiler.Config) error {
	query := `INSERT OR REPLACE INTO boiler_config
		(id, capacity_liters, heating_power_kw, desired_temp_c, latitude, longitude,
		 city_name, avg_shower_liters, avg_shower_minutes, default_people_count,
		 onboarding_complete, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, c.CapacityLiters, c.HeatingPowerKw, c.DesiredTempC,
		c.Latitude, c.Longitude, c.CityName, c.AvgShowerLiters, c.AvgShowerMinutes,
		c.DefaultPeopleCount, boolToInt(c.OnboardingComplete), time.Now())
	return err
}

// GetConfig retrieves the boiler configuration.
func (s *Store) GetConfig() (*boiler.Config, error) {
	query := `SELECT id, capacity_liters, heating_power_kw, desired_temp_c, latitude, longitude,
		city_name, avg_shower_liters, avg_shower_minutes, default_people_count, onboarding_complete
		FROM boiler_config LIMIT 1`

	var c boiler.Config
	var onboardingInt int
	err := s.db.QueryRow(query).Scan(&c.ID, &c.CapacityLiters, &c.HeatingPowerKw,
		&c.DesiredTempC, &c.Latitude, &c.Longitude, &c.CityName, &c.AvgShowerLiters,
		&c.AvgShowerMinutes, &c.DefaultPeopleCount, &onboardingInt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.OnboardingComplete = onboardingInt == 1
	return &c, nil
}

// SetOnboardingComplete marks onboarding done (or not) on the config record.
func (s *Store) SetOnboardingComplete(complete bool) error {
	_, err := s.db.Exec(`UPDATE boiler_config SET onboarding_complete = ?`, boolToInt(complete))
	return err
}

// --- Heating baselines ---

// GetBaselines returns all per-day-type heating baselines.
func (s *Store) GetBaselines() ([]boiler.Baseline, error) {
	rows, err := s.db.Query(`SELECT id, day_type, duration_minutes FROM heating_baseline`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	baselines := []boiler.Baseline{}
	for rows.Next() {
		var b boiler.Baseline
		if err := rows.Scan(&b.ID, &b.DayType, &b.DurationMinutes); err != nil {
			return nil, err
		}
		baselines = append(baselines, b)
	}
	return baselines, rows.Err()
}

// ReplaceBaselines swaps the full baseline set in one transaction.
func (s *Store) ReplaceBaselines(baselines []boiler.Baseline) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM heating_baseline`); err != nil {
		return err
	}
	for _, b := range baselines {
		if _, err := tx.Exec(`INSERT INTO heating_baseline (day_type, duration_minutes) VALUES (?, ?)`,
			string(b.DayType), b.DurationMinutes); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// --- Shower schedules ---

const scheduleColumns = `id, date, scheduled_time, day_type, cloud_cover, people_count,
	heating_required, heating_minutes, heating_start_time, est_solar_temp, est_final_temp,
	water_needed_liters, is_recurring_template, recurrence_group_id, recurrence_days,
	is_recurring_enabled`

// InsertSchedule persists a schedule (occurrence or template) and returns its id.
func (s *Store) InsertSchedule(sched *boiler.Schedule) (int64, error) {
	var startTime sql.NullString
	if sched.HeatingStartTime != "" {
		startTime = sql.NullString{String: sched.HeatingStartTime, Valid: true}
	}

	var groupID sql.NullString
	if sched.RecurrenceGroupID != "" {
		groupID = sql.NullString{String: sched.RecurrenceGroupID, Valid: true}
	}

	var daysJSON sql.NullString
	if len(sched.RecurrenceDays) > 0 {
		encoded, _ := json.Marshal(sched.RecurrenceDays)
		daysJSON = sql.NullString{String: string(encoded), Valid: true}
	}

	query := `INSERT INTO shower_schedule
		(date, scheduled_time, day_type, cloud_cover, people_count, heating_required,
		 heating_minutes, heating_start_time, est_solar_temp, est_final_temp,
		 water_needed_liters, is_recurring_template, recurrence_group_id,
		 recurrence_days, is_recurring_enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.Exec(query, sched.Date, sched.ScheduledTime, string(sched.DayType),
		sched.CloudCoverPercent, sched.PeopleCount, boolToInt(sched.HeatingRequired),
		sched.HeatingMinutes, startTime, sched.EstimatedSolarTempC, sched.EstimatedFinalTempC,
		sched.WaterNeededLiters, boolToInt(sched.RecurringTemplate), groupID, daysJSON,
		boolToInt(sched.RecurringEnabled))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetSchedule retrieves a schedule by id.
func (s *Store) GetSchedule(id int64) (*boiler.Schedule, error) {
	row := s.db.QueryRow(`SELECT `+scheduleColumns+` FROM shower_schedule WHERE id = ?`, id)
	sched, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sched, nil
}

// GetSchedulesForDate returns all non-template occurrences for a date,
// ordered by time.
func (s *Store) GetSchedulesForDate(date string) ([]*boiler.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM shower_schedule
		WHERE date = ? AND is_recurring_template = 0 ORDER BY scheduled_time ASC`
	return s.querySchedules(query, date)
}

// GetRecurringTemplates returns all template rows.
func (s *Store) GetRecurringTemplates() ([]*boiler.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM shower_schedule
		WHERE is_recurring_template = 1 ORDER BY scheduled_time ASC`
	return s.querySchedules(query)
}

// GetRecurringSchedules returns the template rows as recurrence configs.
func (s *Store) GetRecurringSchedules() ([]boiler.RecurringSchedule, error) {
	templates, err := s.GetRecurringTemplates()
	if err != nil {
		return nil, err
	}

	configs := []boiler.RecurringSchedule{}
	for _, tpl := range templates {
		if tpl.RecurrenceGroupID == "" {
			continue
		}
		configs = append(configs, boiler.RecurringSchedule{
			GroupID:     tpl.RecurrenceGroupID,
			StartDate:   tpl.Date,
			TimeOfDay:   tpl.ScheduledTime,
			PeopleCount: tpl.PeopleCount,
			Days:        tpl.RecurrenceDays,
			Enabled:     tpl.RecurringEnabled,
		})
	}
	return configs, nil
}

// HasOccurrence reports whether a materialized occurrence exists for the key.
func (s *Store) HasOccurrence(date, timeOfDay, groupID string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM shower_schedule
		WHERE date = ? AND scheduled_time = ? AND recurrence_group_id = ? AND is_recurring_template = 0`,
		date, timeOfDay, groupID).Scan(&count)
	return count > 0, err
}

// InsertOccurrence satisfies boiler.OccurrenceStore.
func (s *Store) InsertOccurrence(sched *boiler.Schedule) (int64, error) {
	return s.InsertSchedule(sched)
}

// SetRecurringEnabled flips a recurrence group on or off. Disabling also
// removes not-yet-happened occurrences from fromDate on; past occurrences
// stay as history.
func (s *Store) SetRecurringEnabled(groupID string, enabled bool, fromDate string) error {
	_, err := s.db.Exec(`UPDATE shower_schedule SET is_recurring_enabled = ?
		WHERE recurrence_group_id = ?`, boolToInt(enabled), groupID)
	if err != nil {
		return err
	}
	if !enabled {
		return s.DeleteFutureOccurrences(groupID, fromDate)
	}
	return nil
}

// DeleteFutureOccurrences removes a group's non-template occurrences dated on
// or after fromDate.
func (s *Store) DeleteFutureOccurrences(groupID, fromDate string) error {
	_, err := s.db.Exec(`DELETE FROM shower_schedule
		WHERE recurrence_group_id = ? AND is_recurring_template = 0 AND date >= ?`,
		groupID, fromDate)
	return err
}

// DeleteRecurringGroup removes a template and every occurrence it generated.
func (s *Store) DeleteRecurringGroup(groupID string) error {
	_, err := s.db.Exec(`DELETE FROM shower_schedule WHERE recurrence_group_id = ?`, groupID)
	return err
}

// SchedulesNeedingFeedback returns ids of occurrences on date whose time has
// passed and that have no feedback yet.
func (s *Store) SchedulesNeedingFeedback(date, currentTime string) ([]int64, error) {
	query := `SELECT s.id FROM shower_schedule s
		LEFT JOIN feedback f ON s.id = f.schedule_id
		WHERE s.date = ? AND s.is_recurring_template = 0 AND f.id IS NULL AND s.scheduled_time < ?
		ORDER BY s.scheduled_time ASC`

	rows, err := s.db.Query(query, date, currentTime)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- Feedback ---

// InsertFeedback persists a feedback entry and returns its id.
func (s *Store) InsertFeedback(f *boiler.FeedbackEntry) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO feedback
		(schedule_id, date, day_type, rating, heating_minutes, cloud_cover, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ScheduleID, f.Date, string(f.DayType), string(f.Rating),
		f.HeatingMinutes, f.CloudCoverPercent, time.Now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FeedbackForSchedule returns the feedback entry for a schedule, or
// ErrNotFound if none has been recorded.
func (s *Store) FeedbackForSchedule(scheduleID int64) (*boiler.FeedbackEntry, error) {
	row := s.db.QueryRow(`SELECT id, schedule_id, date, day_type, rating, heating_minutes, cloud_cover, created_at
		FROM feedback WHERE schedule_id = ? LIMIT 1`, scheduleID)
	f, err := scanFeedback(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// RecentFeedback returns the most recent entries, newest first.
func (s *Store) RecentFeedback(limit int) ([]*boiler.FeedbackEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT id, schedule_id, date, day_type, rating, heating_minutes, cloud_cover, created_at
		FROM feedback ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*boiler.FeedbackEntry{}
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, f)
	}
	return entries, rows.Err()
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*boiler.Schedule, error) {
	var sched boiler.Schedule
	var heatingRequired, isTemplate, recurringEnabled int
	var startTime, groupID, daysJSON sql.NullString

	err := row.Scan(&sched.ID, &sched.Date, &sched.ScheduledTime, &sched.DayType,
		&sched.CloudCoverPercent, &sched.PeopleCount, &heatingRequired,
		&sched.HeatingMinutes, &startTime, &sched.EstimatedSolarTempC,
		&sched.EstimatedFinalTempC, &sched.WaterNeededLiters, &isTemplate,
		&groupID, &daysJSON, &recurringEnabled)
	if err != nil {
		return nil, err
	}

	sched.HeatingRequired = heatingRequired == 1
	sched.RecurringTemplate = isTemplate == 1
	sched.RecurringEnabled = recurringEnabled == 1
	if startTime.Valid {
		sched.HeatingStartTime = startTime.String
	}
	if groupID.Valid {
		sched.RecurrenceGroupID = groupID.String
	}
	if daysJSON.Valid {
		json.Unmarshal([]byte(daysJSON.String), &sched.RecurrenceDays)
	}
	return &sched, nil
}

func scanFeedback(row rowScanner) (*boiler.FeedbackEntry, error) {
	var f boiler.FeedbackEntry
	err := row.Scan(&f.ID, &f.ScheduleID, &f.Date, &f.DayType, &f.Rating,
		&f.HeatingMinutes, &f.CloudCoverPercent, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) querySchedules(query string, args ...any) ([]*boiler.Schedule, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := []*boiler.Schedule{}
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, sched)
	}
	return schedules, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
