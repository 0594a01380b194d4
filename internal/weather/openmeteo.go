package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const openMeteoAPIBase = "https://api.open-meteo.com/v1/forecast"

// SourceData is the raw multi-day forecast as returned by a Source. Hourly
// series run in parallel by index; times use "2006-01-02T15:04".
type SourceData struct {
	HourlyTime       []string
	HourlyTempC      []float64
	HourlyCloudCover []float64
	HourlyRadiation  []float64
	DailyTime        []string
	DailySunshineSec []float64
}

// Source fetches a multi-day forecast for a location.
type Source interface {
	Fetch(ctx context.Context, lat, lon float64, days int) (*SourceData, error)
}

// OpenMeteoClient fetches forecasts from the Open-Meteo API.
// Free tier, no API key required.
type OpenMeteoClient struct {
	httpClient *http.Client
}

// NewOpenMeteoClient creates a new Open-Meteo client.
func NewOpenMeteoClient() *OpenMeteoClient {
	return &OpenMeteoClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// openMeteoResponse represents the API response
type openMeteoResponse struct {
	Hourly struct {
		Time               []string  `json:"time"`
		Temperature2m      []float64 `json:"temperature_2m"`
		CloudCover         []float64 `json:"cloud_cover"`
		ShortwaveRadiation []float64 `json:"shortwave_radiation"`
	} `json:"hourly"`
	Daily struct {
		Time             []string  `json:"time"`
		SunshineDuration []float64 `json:"sunshine_duration"`
	} `json:"daily"`
}

// Fetch retrieves hourly temperature, cloud cover and solar radiation plus
// daily sunshine duration covering the next days.
func (c *OpenMeteoClient) Fetch(ctx context.Context, lat, lon float64, days int) (*SourceData, error) {
	params := url.Values{}
	params.Add("latitude", fmt.Sprintf("%.4f", lat))
	params.Add("longitude", fmt.Sprintf("%.4f", lon))
	params.Add("hourly", "temperature_2m,cloud_cover,shortwave_radiation")
	params.Add("daily", "sunshine_duration")
	params.Add("forecast_days", fmt.Sprintf("%d", days))
	params.Add("timezone", "auto")

	fullURL := fmt.Sprintf("%s?%s", openMeteoAPIBase, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("weather API returned status %d: %s", resp.StatusCode, string(body))
	}

	var meteoResp openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&meteoResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &SourceData{
		HourlyTime:       meteoResp.Hourly.Time,
		HourlyTempC:      meteoResp.Hourly.Temperature2m,
		HourlyCloudCover: meteoResp.Hourly.CloudCover,
		HourlyRadiation:  meteoResp.Hourly.ShortwaveRadiation,
		DailyTime:        meteoResp.Daily.Time,
		DailySunshineSec: meteoResp.Daily.SunshineDuration,
	}, nil
}
