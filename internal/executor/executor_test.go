package executor

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/awaistahir/smart-boiler/internal/boiler"
	"github.com/awaistahir/smart-boiler/internal/device"
	"github.com/awaistahir/smart-boiler/internal/store"
	"github.com/awaistahir/smart-boiler/internal/weather"
)

type fakeSource struct {
	data *weather.SourceData
	err  error
}

func (f *fakeSource) Fetch(ctx context.Context, lat, lon float64, days int) (*weather.SourceData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

// overcastData returns a zero-radiation day so execution-time estimates stay
// at the inlet temperature.
func overcastData(date string) *weather.SourceData {
	data := &weather.SourceData{}
	for h := 0; h < 24; h++ {
		data.HourlyTime = append(data.HourlyTime,
			date+"T"+time.Date(0, 1, 1, h, 0, 0, 0, time.UTC).Format("15:04"))
		data.HourlyTempC = append(data.HourlyTempC, 10)
		data.HourlyCloudCover = append(data.HourlyCloudCover, 90)
		data.HourlyRadiation = append(data.HourlyRadiation, 0)
	}
	return data
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := &boiler.Config{
		CapacityLiters:  150,
		HeatingPowerKw:  3.0,
		DesiredTempC:    40,
		AvgShowerLiters: 50,
	}
	if err := st.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	return st
}

func selectedStub(t *testing.T) *device.StubController {
	t.Helper()
	ctrl := device.NewStubController(nil)
	devices, err := ctrl.DiscoverDevices(context.Background())
	if err != nil || len(devices) == 0 {
		t.Fatalf("DiscoverDevices() = %v, %v", devices, err)
	}
	if err := ctrl.SelectDevice(context.Background(), devices[0].ID); err != nil {
		t.Fatalf("SelectDevice() error = %v", err)
	}
	return ctrl
}

func switchOn(t *testing.T, ctrl device.SwitchController) bool {
	t.Helper()
	d, err := ctrl.SelectedDevice(context.Background())
	if err != nil || d == nil {
		t.Fatalf("SelectedDevice() = %v, %v", d, err)
	}
	return d.On
}

func TestExecutorHeatingCycle(t *testing.T) {
	ctx := context.Background()
	startAt := time.Date(2026, 3, 14, 17, 15, 0, 0, time.UTC)

	st := newTestStore(t)
	ctrl := selectedStub(t)
	// Source fails so the executor runs on the planned duration.
	cache := weather.NewCache(&fakeSource{err: errors.New("offline")}, nil)
	exec := New(st, cache, ctrl, nil)

	_, err := st.InsertSchedule(&boiler.Schedule{
		Date:             "2026-03-14",
		ScheduledTime:    "18:00",
		PeopleCount:      2,
		HeatingRequired:  true,
		HeatingMinutes:   45,
		HeatingStartTime: "17:15",
	})
	if err != nil {
		t.Fatalf("InsertSchedule() error = %v", err)
	}

	// Before the start time nothing happens.
	exec.now = func() time.Time { return startAt.Add(-5 * time.Minute) }
	if err := exec.Tick(ctx); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if switchOn(t, ctrl) {
		t.Fatal("switch on before the start time")
	}

	// At the start time the boiler turns on.
	exec.now = func() time.Time { return startAt }
	if err := exec.Tick(ctx); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if !switchOn(t, ctrl) {
		t.Fatal("switch off at the start time, want on")
	}

	// Mid-window it stays on.
	exec.now = func() time.Time { return startAt.Add(20 * time.Minute) }
	if err := exec.Tick(ctx); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if !switchOn(t, ctrl) {
		t.Fatal("switch off mid-window, want on")
	}

	// After the planned 45 minutes it turns off.
	exec.now = func() time.Time { return startAt.Add(45 * time.Minute) }
	if err := exec.Tick(ctx); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if switchOn(t, ctrl) {
		t.Fatal("switch still on after the heating window")
	}
}

func TestRecalculatedDuration(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 17, 15, 0, 0, time.UTC)

	sched := &boiler.Schedule{
		Date:             "2026-03-14",
		ScheduledTime:    "18:00",
		PeopleCount:      2,
		HeatingRequired:  true,
		HeatingMinutes:   45,
		HeatingStartTime: "17:15",
	}

	t.Run("forecast failure falls back to the planned duration", func(t *testing.T) {
		st := newTestStore(t)
		cache := weather.NewCache(&fakeSource{err: errors.New("offline")}, nil)
		exec := New(st, cache, selectedStub(t), nil)
		exec.now = func() time.Time { return now }

		if got := exec.RecalculatedDuration(ctx, sched, now); got != 45 {
			t.Errorf("RecalculatedDuration() = %d, want planned 45", got)
		}
	})

	t.Run("fresh forecast rederives the duration", func(t *testing.T) {
		st := newTestStore(t)
		cache := weather.NewCache(&fakeSource{data: overcastData("2026-03-14")}, nil)
		exec := New(st, cache, selectedStub(t), nil)
		exec.now = func() time.Time { return now }

		// Zero radiation leaves the tank at the 15°C inlet: 25°C deficit
		// over 100L at 3kW is 59 minutes plus the margin.
		if got := exec.RecalculatedDuration(ctx, sched, now); got != 69 {
			t.Errorf("RecalculatedDuration() = %d, want 69", got)
		}
	})

	t.Run("warm tank cancels the heat", func(t *testing.T) {
		st := newTestStore(t)
		cfg, err := st.GetConfig()
		if err != nil {
			t.Fatalf("GetConfig() error = %v", err)
		}
		cfg.DesiredTempC = 15
		if err := st.SaveConfig(cfg); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		cache := weather.NewCache(&fakeSource{data: overcastData("2026-03-14")}, nil)
		exec := New(st, cache, selectedStub(t), nil)
		exec.now = func() time.Time { return now }

		if got := exec.RecalculatedDuration(ctx, sched, now); got != 0 {
			t.Errorf("RecalculatedDuration() = %d, want 0", got)
		}
	})
}
