package weather

import (
	"strings"
	"time"

	"github.com/awaistahir/smart-boiler/internal/boiler"
)

const (
	defaultTempC      = 20.0
	defaultCloudCover = 50
	noonHour          = 12
)

// deriveForecasts builds one boiler.Forecast per calendar date present in the
// source data. today and nowHour pin the "current conditions" sample for
// today's forecast; other days sample at noon.
func deriveForecasts(data *SourceData, today string, nowHour int) map[string]boiler.Forecast {
	forecasts := make(map[string]boiler.Forecast)

	var dates []string
	seen := make(map[string]bool)
	for _, ts := range data.HourlyTime {
		date, _, ok := strings.Cut(ts, "T")
		if !ok || seen[date] {
			continue
		}
		seen[date] = true
		dates = append(dates, date)
	}

	for _, date := range dates {
		fc, ok := deriveForDate(data, date, today, nowHour)
		if ok {
			forecasts[date] = fc
		}
	}
	return forecasts
}

func deriveForDate(data *SourceData, date, today string, nowHour int) (boiler.Forecast, bool) {
	targetHour := noonHour
	if date == today {
		targetHour = nowHour
	}

	var temps, cloud, radiation []float64
	var hours []int
	for i, ts := range data.HourlyTime {
		if !strings.HasPrefix(ts, date) {
			continue
		}
		t, err := time.Parse("2006-01-02T15:04", ts)
		if err != nil {
			continue
		}
		hours = append(hours, t.Hour())
		temps = append(temps, sampleAt(data.HourlyTempC, i, defaultTempC))
		cloud = append(cloud, sampleAt(data.HourlyCloudCover, i, defaultCloudCover))
		radiation = append(radiation, sampleAt(data.HourlyRadiation, i, 0))
	}
	if len(hours) == 0 {
		return boiler.Forecast{}, false
	}

	// Current conditions: first sample at or after the target hour,
	// else the last available one.
	current := len(hours) - 1
	for i, h := range hours {
		if h >= targetHour {
			current = i
			break
		}
	}

	totalCloud := 0.0
	for _, c := range cloud {
		totalCloud += c
	}
	avgCloud := int(totalCloud / float64(len(cloud)))

	sunshineHours := 0.0
	for i, d := range data.DailyTime {
		if d == date && i < len(data.DailySunshineSec) {
			sunshineHours = data.DailySunshineSec[i] / 3600.0
			break
		}
	}

	return boiler.Forecast{
		CurrentTempC:        temps[current],
		CloudCoverPercent:   avgCloud,
		CurrentRadiationWm2: radiation[current],
		SunshineHours:       sunshineHours,
		DayType:             boiler.DeriveDayType(avgCloud),
		HourlyTempC:         temps,
		HourlyCloudCover:    cloud,
		HourlyRadiationWm2:  radiation,
	}, true
}

func sampleAt(series []float64, i int, fallback float64) float64 {
	if i < len(series) {
		return series[i]
	}
	return fallback
}
