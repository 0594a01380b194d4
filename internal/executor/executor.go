// Package executor turns committed heating plans into switch commands. It is
// deliberately separate from planning: the duration is re-derived from fresh
// weather data immediately before turn-on, so drift between plan time and
// execution time is corrected (and a skipped or failed command can retry with
// current data on the next tick).
package executor

import (
	"context"
	"time"

	"github.com/awaistahir/smart-boiler/internal/boiler"
	"github.com/awaistahir/smart-boiler/internal/device"
	"github.com/awaistahir/smart-boiler/internal/store"
	"github.com/awaistahir/smart-boiler/internal/weather"
	"go.uber.org/zap"
)

// Executor polls today's schedules and drives the smart switch at the
// computed start times.
type Executor struct {
	store      *store.Store
	weather    *weather.Cache
	controller device.SwitchController
	log        *zap.SugaredLogger
	now        func() time.Time

	// heating state across ticks
	active bool
	offAt  time.Time
}

// New creates an executor. logger may be nil.
func New(st *store.Store, wc *weather.Cache, ctrl device.SwitchController, logger *zap.SugaredLogger) *Executor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Executor{
		store:      st,
		weather:    wc,
		controller: ctrl,
		log:        logger,
		now:        time.Now,
	}
}

// Run ticks once a minute until ctx is cancelled.
func (e *Executor) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := e.Tick(ctx); err != nil {
				e.log.Errorw("executor tick failed", "error", err)
			}
		}
	}
}

// Tick runs one scheduling pass: turn the switch off if the active heating
// window has elapsed, then start any schedule whose start time is now.
func (e *Executor) Tick(ctx context.Context) error {
	now := e.now()

	if e.active && !now.Before(e.offAt) {
		if err := e.controller.TurnOff(ctx); err != nil {
			e.log.Errorw("turn off failed, will retry next tick", "error", err)
			return err
		}
		e.active = false
		e.log.Infow("boiler off")
	}

	if e.active {
		return nil
	}

	schedules, err := e.store.GetSchedulesForDate(now.Format(boiler.DateLayout))
	if err != nil {
		return err
	}

	minute := now.Format(boiler.TimeLayout)
	for _, sched := range schedules {
		if !sched.HeatingRequired || sched.HeatingStartTime != minute {
			continue
		}
		if err := e.start(ctx, sched, now); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) start(ctx context.Context, sched *boiler.Schedule, now time.Time) error {
	minutes := e.RecalculatedDuration(ctx, sched, now)
	if minutes <= 0 {
		e.log.Infow("heating skipped, updated duration is zero",
			"schedule", sched.ID, "planned_minutes", sched.HeatingMinutes)
		return nil
	}

	if err := e.controller.TurnOn(ctx); err != nil {
		e.log.Errorw("turn on failed, will retry next tick", "schedule", sched.ID, "error", err)
		return err
	}

	e.active = true
	e.offAt = now.Add(time.Duration(minutes) * time.Minute)
	e.log.Infow("boiler on", "schedule", sched.ID,
		"planned_minutes", sched.HeatingMinutes, "updated_minutes", minutes)
	return nil
}

// RecalculatedDuration re-derives the heating duration from the latest
// forecast and baselines. On any failure it falls back to the planned
// duration rather than skipping the heat.
func (e *Executor) RecalculatedDuration(ctx context.Context, sched *boiler.Schedule, now time.Time) int {
	cfg, err := e.store.GetConfig()
	if err != nil {
		return sched.HeatingMinutes
	}

	fc, err := e.weather.GetForecast(ctx, cfg.Latitude, cfg.Longitude, now)
	if err != nil {
		e.log.Warnw("forecast unavailable at execution, using planned duration",
			"schedule", sched.ID, "error", err)
		return sched.HeatingMinutes
	}

	baselines, err := e.store.GetBaselines()
	if err != nil {
		return sched.HeatingMinutes
	}

	est := boiler.EstimateWaterTemperature(*cfg, baselines, fc, now.Hour(), 0)

	waterNeeded := sched.PeopleCount * cfg.AvgShowerLiters
	heatedVolume := float64(waterNeeded)
	if waterNeeded > cfg.CapacityLiters {
		heatedVolume = float64(cfg.CapacityLiters)
	}

	effectiveTemp := boiler.EffectiveDeliveredTemp(est.TemperatureC, waterNeeded, cfg.CapacityLiters, est.InletTempC)
	deficit := float64(cfg.DesiredTempC) - effectiveTemp
	if deficit <= 0 {
		return 0
	}
	return boiler.HeatingDuration(deficit, heatedVolume, cfg.HeatingPowerKw, boiler.SafetyMarginMinutes)
}
