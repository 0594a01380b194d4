package boiler

import "time"

// DateLayout is the calendar-date format used for schedule rows and cache keys.
const DateLayout = "2006-01-02"

// TimeLayout is the time-of-day format used for scheduled and start times.
const TimeLayout = "15:04"

// DayType categorizes a day's weather by its average cloud cover.
type DayType string

const (
	DaySunny        DayType = "SUNNY"
	DayPartlyCloudy DayType = "PARTLY_CLOUDY"
	DayCloudy       DayType = "CLOUDY"
)

// DeriveDayType maps an average cloud cover percentage to a DayType.
func DeriveDayType(cloudCoverPercent int) DayType {
	switch {
	case cloudCoverPercent < 30:
		return DaySunny
	case cloudCoverPercent < 65:
		return DayPartlyCloudy
	default:
		return DayCloudy
	}
}

// Rating is the user's verdict on a past shower.
type Rating string

const (
	RatingTooCold   Rating = "too_cold"
	RatingJustRight Rating = "just_right"
	RatingTooHot    Rating = "too_hot"
)

// Config is the installation's boiler setup. One live record per installation.
type Config struct {
	ID                 int64   `json:"id"`
	CapacityLiters     int     `json:"capacity_liters"`
	HeatingPowerKw     float64 `json:"heating_power_kw"`
	DesiredTempC       int     `json:"desired_temp_c"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	CityName           string  `json:"city_name"`
	AvgShowerLiters    int     `json:"avg_shower_liters"`
	AvgShowerMinutes   int     `json:"avg_shower_minutes"`
	DefaultPeopleCount int     `json:"default_people_count"`
	OnboardingComplete bool    `json:"onboarding_complete"`
}

// Baseline is the learned electric-heating duration for one day type,
// used to calibrate the estimator when forecast data alone is not enough.
type Baseline struct {
	ID              int64   `json:"id"`
	DayType         DayType `json:"day_type"`
	DurationMinutes int     `json:"duration_minutes"`
}

// Forecast is the processed weather input for the estimation model,
// derived from raw Open-Meteo data for a single day.
type Forecast struct {
	CurrentTempC        float64   `json:"current_temp_c"`
	CloudCoverPercent   int       `json:"cloud_cover_percent"`
	CurrentRadiationWm2 float64   `json:"current_radiation_wm2"`
	SunshineHours       float64   `json:"sunshine_hours"`
	DayType             DayType   `json:"day_type"`
	HourlyTempC         []float64 `json:"hourly_temp_c,omitempty"`
	HourlyCloudCover    []float64 `json:"hourly_cloud_cover,omitempty"`
	HourlyRadiationWm2  []float64 `json:"hourly_radiation_wm2,omitempty"`
}

// Schedule is one shower occurrence with its computed heating plan.
// Template rows (RecurringTemplate = true) carry the recurrence fields and
// never execute themselves; materialized occurrences share their group id.
type Schedule struct {
	ID                  int64          `json:"id"`
	Date                string         `json:"date"`           // DateLayout
	ScheduledTime       string         `json:"scheduled_time"` // TimeLayout
	DayType             DayType        `json:"day_type"`
	CloudCoverPercent   int            `json:"cloud_cover_percent"`
	PeopleCount         int            `json:"people_count"`
	HeatingRequired     bool           `json:"heating_required"`
	HeatingMinutes      int            `json:"heating_minutes"`
	HeatingStartTime    string         `json:"heating_start_time,omitempty"` // empty when no heating
	EstimatedSolarTempC float64        `json:"estimated_solar_temp_c"`
	EstimatedFinalTempC float64        `json:"estimated_final_temp_c"`
	WaterNeededLiters   int            `json:"water_needed_liters"`
	RecurringTemplate   bool           `json:"recurring_template,omitempty"`
	RecurrenceGroupID   string         `json:"recurrence_group_id,omitempty"`
	RecurrenceDays      []time.Weekday `json:"recurrence_days,omitempty"`
	RecurringEnabled    bool           `json:"recurring_enabled,omitempty"`
}

// RecurringSchedule is a template that generates dated occurrences.
type RecurringSchedule struct {
	GroupID     string         `json:"group_id"`
	StartDate   string         `json:"start_date"`
	TimeOfDay   string         `json:"time_of_day"`
	PeopleCount int            `json:"people_count"`
	Days        []time.Weekday `json:"days"`
	Enabled     bool           `json:"enabled"`
}

// FeedbackEntry ties a past shower occurrence to a user rating and the
// conditions it ran under, so corrections apply to similar future days.
type FeedbackEntry struct {
	ID                int64     `json:"id"`
	ScheduleID        int64     `json:"schedule_id"`
	Date              string    `json:"date"`
	DayType           DayType   `json:"day_type"`
	Rating            Rating    `json:"rating"`
	HeatingMinutes    int       `json:"heating_minutes"`
	CloudCoverPercent int       `json:"cloud_cover_percent"`
	CreatedAt         time.Time `json:"created_at"`
}
