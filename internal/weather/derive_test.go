package weather

import (
	"fmt"
	"testing"

	"github.com/awaistahir/smart-boiler/internal/boiler"
)

func hourlyTimes(date string) []string {
	out := make([]string, 24)
	for h := 0; h < 24; h++ {
		out[h] = fmt.Sprintf("%sT%02d:00", date, h)
	}
	return out
}

func TestDeriveForecasts(t *testing.T) {
	data := &SourceData{
		HourlyTime:       hourlyTimes("2026-03-14"),
		HourlyTempC:      make([]float64, 24),
		HourlyCloudCover: make([]float64, 24),
		HourlyRadiation:  make([]float64, 24),
		DailyTime:        []string{"2026-03-14"},
		DailySunshineSec: []float64{5 * 3600},
	}
	for h := 0; h < 24; h++ {
		data.HourlyTempC[h] = float64(h)
		data.HourlyCloudCover[h] = 20
		data.HourlyRadiation[h] = float64(h * 10)
	}

	t.Run("today samples current conditions at the current hour", func(t *testing.T) {
		forecasts := deriveForecasts(data, "2026-03-14", 9)
		fc, ok := forecasts["2026-03-14"]
		if !ok {
			t.Fatal("no forecast derived for 2026-03-14")
		}
		if fc.CurrentTempC != 9 {
			t.Errorf("CurrentTempC = %v, want hour-9 sample 9", fc.CurrentTempC)
		}
		if fc.CurrentRadiationWm2 != 90 {
			t.Errorf("CurrentRadiationWm2 = %v, want 90", fc.CurrentRadiationWm2)
		}
		if fc.SunshineHours != 5 {
			t.Errorf("SunshineHours = %v, want 5", fc.SunshineHours)
		}
		if fc.DayType != boiler.DaySunny {
			t.Errorf("DayType = %s, want SUNNY at 20%% average cloud", fc.DayType)
		}
		if len(fc.HourlyRadiationWm2) != 24 {
			t.Errorf("kept %d hourly radiation samples, want 24", len(fc.HourlyRadiationWm2))
		}
	})

	t.Run("other days sample at noon", func(t *testing.T) {
		forecasts := deriveForecasts(data, "2026-03-13", 9)
		fc := forecasts["2026-03-14"]
		if fc.CurrentTempC != 12 {
			t.Errorf("CurrentTempC = %v, want noon sample 12", fc.CurrentTempC)
		}
	})

	t.Run("average cloud cover drives the day type", func(t *testing.T) {
		overcast := &SourceData{
			HourlyTime:       hourlyTimes("2026-03-14"),
			HourlyTempC:      make([]float64, 24),
			HourlyCloudCover: make([]float64, 24),
			HourlyRadiation:  make([]float64, 24),
		}
		for h := range overcast.HourlyCloudCover {
			overcast.HourlyCloudCover[h] = 90
		}
		fc := deriveForecasts(overcast, "2026-03-14", 9)["2026-03-14"]
		if fc.CloudCoverPercent != 90 || fc.DayType != boiler.DayCloudy {
			t.Errorf("got %d%% %s, want 90%% CLOUDY", fc.CloudCoverPercent, fc.DayType)
		}
	})

	t.Run("short series falls back to defaults", func(t *testing.T) {
		sparse := &SourceData{
			HourlyTime:  hourlyTimes("2026-03-14"),
			HourlyTempC: []float64{3}, // only hour 0 reported
		}
		fc := deriveForecasts(sparse, "2026-03-14", 9)["2026-03-14"]
		if fc.CurrentTempC != defaultTempC {
			t.Errorf("CurrentTempC = %v, want default %v", fc.CurrentTempC, defaultTempC)
		}
		if fc.CloudCoverPercent != defaultCloudCover {
			t.Errorf("CloudCoverPercent = %d, want default %d", fc.CloudCoverPercent, defaultCloudCover)
		}
	})

	t.Run("dates without samples are skipped", func(t *testing.T) {
		forecasts := deriveForecasts(data, "2026-03-14", 9)
		if _, ok := forecasts["2026-03-15"]; ok {
			t.Error("derived a forecast for a date with no hourly data")
		}
	})
}
