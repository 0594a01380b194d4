package boiler

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInput marks requests that can never succeed as given.
	ErrInvalidInput = errors.New("invalid input parameters")

	// ErrScheduleInPast is returned when the requested shower time is not in
	// the future.
	ErrScheduleInPast = errors.New("scheduled shower must be in the future")

	// ErrNotEnoughTime is returned when heating cannot finish before the
	// shower. The caller should offer a later time or fewer people.
	ErrNotEnoughTime = errors.New("not enough time to heat water before this shower")
)

// PlanShower computes the heating plan for a shower of peopleCount people on
// date at timeOfDay (TimeLayout). The returned schedule either needs no
// heating, or carries a start time and a duration that fit entirely between
// now and the shower on the same calendar day.
func PlanShower(peopleCount int, date time.Time, timeOfDay string, cfg Config, baselines []Baseline, fc Forecast, now time.Time) (*Schedule, error) {
	if peopleCount <= 0 {
		return nil, fmt.Errorf("%w: people count must be positive", ErrInvalidInput)
	}
	at, err := time.Parse(TimeLayout, timeOfDay)
	if err != nil {
		return nil, fmt.Errorf("%w: bad time %q", ErrInvalidInput, timeOfDay)
	}

	scheduledAt := time.Date(date.Year(), date.Month(), date.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !scheduledAt.After(now) {
		return nil, ErrScheduleInPast
	}

	// Predicted tank temperature at shower time with no electric heating.
	est := EstimateWaterTemperature(cfg, baselines, fc, scheduledAt.Hour(), 0)
	solarTemp := est.TemperatureC

	waterNeeded := peopleCount * cfg.AvgShowerLiters

	// Only the top layer expected to be drawn needs heating.
	heatedVolume := float64(waterNeeded)
	if waterNeeded > cfg.CapacityLiters {
		heatedVolume = float64(cfg.CapacityLiters)
	}

	effectiveSolarTemp := EffectiveDeliveredTemp(solarTemp, waterNeeded, cfg.CapacityLiters, est.InletTempC)

	sched := &Schedule{
		Date:                scheduledAt.Format(DateLayout),
		ScheduledTime:       scheduledAt.Format(TimeLayout),
		DayType:             fc.DayType,
		CloudCoverPercent:   fc.CloudCoverPercent,
		PeopleCount:         peopleCount,
		EstimatedSolarTempC: solarTemp,
		WaterNeededLiters:   waterNeeded,
	}

	deficit := float64(cfg.DesiredTempC) - effectiveSolarTemp
	if deficit <= 0 {
		sched.EstimatedFinalTempC = effectiveSolarTemp
		return sched, nil
	}

	heatingMinutes := HeatingDuration(deficit, heatedVolume, cfg.HeatingPowerKw, SafetyMarginMinutes)

	startAt := scheduledAt.Add(-time.Duration(heatingMinutes) * time.Minute)
	if !startAt.After(now) || startAt.Format(DateLayout) != sched.Date {
		return nil, ErrNotEnoughTime
	}

	// The committed duration keeps the safety margin; the displayed final
	// temperature backs it out so the user sees expected performance.
	effectiveMinutes := heatingMinutes - SafetyMarginMinutes
	heatedLayerTemp := solarTemp + ElectricGain(cfg.HeatingPowerKw, heatedVolume, effectiveMinutes)

	sched.HeatingRequired = true
	sched.HeatingMinutes = heatingMinutes
	sched.HeatingStartTime = startAt.Format(TimeLayout)
	sched.EstimatedFinalTempC = EffectiveDeliveredTemp(heatedLayerTemp, waterNeeded, cfg.CapacityLiters, est.InletTempC)
	return sched, nil
}
