package weather

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSource serves canned data and counts round trips.
type fakeSource struct {
	data    *SourceData
	err     error
	fetches int
}

func (f *fakeSource) Fetch(ctx context.Context, lat, lon float64, days int) (*SourceData, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

// twoDayData returns hourly samples for 2026-03-14 and 2026-03-15.
func twoDayData() *SourceData {
	data := &SourceData{
		DailyTime:        []string{"2026-03-14", "2026-03-15"},
		DailySunshineSec: []float64{7200, 3600},
	}
	for _, date := range []string{"2026-03-14", "2026-03-15"} {
		for h := 0; h < 24; h++ {
			data.HourlyTime = append(data.HourlyTime, date+"T"+time.Date(0, 1, 1, h, 0, 0, 0, time.UTC).Format("15:04"))
			data.HourlyTempC = append(data.HourlyTempC, 18)
			data.HourlyCloudCover = append(data.HourlyCloudCover, 20)
			data.HourlyRadiation = append(data.HourlyRadiation, 100)
		}
	}
	return data
}

func newTestCache(src Source, at time.Time) *Cache {
	c := NewCache(src, nil)
	c.now = func() time.Time { return at }
	return c
}

func TestCacheGetForecast(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("fresh hit never refetches", func(t *testing.T) {
		src := &fakeSource{data: twoDayData()}
		c := newTestCache(src, day)

		first, err := c.GetForecast(ctx, 52.52, 13.405, day)
		if err != nil {
			t.Fatalf("GetForecast() error = %v", err)
		}
		second, err := c.GetForecast(ctx, 52.52, 13.405, day)
		if err != nil {
			t.Fatalf("GetForecast() error = %v", err)
		}
		if src.fetches != 1 {
			t.Errorf("fetches = %d, want 1", src.fetches)
		}
		if first.DayType != second.DayType || first.CurrentTempC != second.CurrentTempC {
			t.Error("cached forecast differs from the fetched one")
		}
	})

	t.Run("one fetch populates every returned date", func(t *testing.T) {
		src := &fakeSource{data: twoDayData()}
		c := newTestCache(src, day)

		if _, err := c.GetForecast(ctx, 52.52, 13.405, day); err != nil {
			t.Fatalf("GetForecast() error = %v", err)
		}
		fc, err := c.GetForecast(ctx, 52.52, 13.405, day.AddDate(0, 0, 1))
		if err != nil {
			t.Fatalf("GetForecast(tomorrow) error = %v", err)
		}
		if src.fetches != 1 {
			t.Errorf("fetches = %d, want 1", src.fetches)
		}
		if fc.SunshineHours != 1 {
			t.Errorf("tomorrow SunshineHours = %v, want 1", fc.SunshineHours)
		}
	})

	t.Run("coordinate jitter shares a cache entry", func(t *testing.T) {
		src := &fakeSource{data: twoDayData()}
		c := newTestCache(src, day)

		c.GetForecast(ctx, 52.52001, 13.40501, day)
		c.GetForecast(ctx, 52.52004, 13.40503, day)
		if src.fetches != 1 {
			t.Errorf("fetches = %d, want 1 for coordinates within rounding", src.fetches)
		}
	})

	t.Run("expired entry refetches", func(t *testing.T) {
		src := &fakeSource{data: twoDayData()}
		c := newTestCache(src, day)

		c.GetForecast(ctx, 52.52, 13.405, day)
		c.now = func() time.Time { return day.Add(31 * time.Minute) }
		c.GetForecast(ctx, 52.52, 13.405, day)
		if src.fetches != 2 {
			t.Errorf("fetches = %d, want 2 after TTL expiry", src.fetches)
		}
	})

	t.Run("stale entry served when the source fails", func(t *testing.T) {
		src := &fakeSource{data: twoDayData()}
		c := newTestCache(src, day)

		want, err := c.GetForecast(ctx, 52.52, 13.405, day)
		if err != nil {
			t.Fatalf("GetForecast() error = %v", err)
		}

		src.err = errors.New("connection refused")
		c.now = func() time.Time { return day.Add(2 * time.Hour) }

		got, err := c.GetForecast(ctx, 52.52, 13.405, day)
		if err != nil {
			t.Fatalf("GetForecast() with stale entry error = %v", err)
		}
		if got.CurrentTempC != want.CurrentTempC {
			t.Errorf("stale CurrentTempC = %v, want %v", got.CurrentTempC, want.CurrentTempC)
		}
	})

	t.Run("source failure with empty cache is an error", func(t *testing.T) {
		src := &fakeSource{err: errors.New("connection refused")}
		c := newTestCache(src, day)

		_, err := c.GetForecast(ctx, 52.52, 13.405, day)
		if !errors.Is(err, ErrForecastUnavailable) {
			t.Errorf("error = %v, want ErrForecastUnavailable", err)
		}
	})

	t.Run("requested date outside the fetched range", func(t *testing.T) {
		src := &fakeSource{data: twoDayData()}
		c := newTestCache(src, day)

		_, err := c.GetForecast(ctx, 52.52, 13.405, day.AddDate(0, 0, 20))
		if !errors.Is(err, ErrForecastUnavailable) {
			t.Errorf("error = %v, want ErrForecastUnavailable", err)
		}
	})
}

func TestCacheKeyRounding(t *testing.T) {
	a := keyFor(52.520008, 13.404954, "2026-03-14")
	b := keyFor(52.520011, 13.404961, "2026-03-14")
	if a != b {
		t.Errorf("keys differ for coordinates within 4-decimal rounding: %v vs %v", a, b)
	}
	c := keyFor(52.5210, 13.4049, "2026-03-14")
	if a == c {
		t.Error("keys match for distinct coordinates")
	}
}
