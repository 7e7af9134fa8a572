// Package openweathermap implements weather.Provider on top of the
// OpenWeatherMap current weather and air pollution APIs.
package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherwise/weatherwise/internal/provider/resilience"
	"github.com/weatherwise/weatherwise/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// maxBodyBytes bounds how much of a provider response is read.
	maxBodyBytes = 1 << 20
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenWeatherMap API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetCurrentWeather fetches current weather for a location.
// The raw response body is kept on the observation.
func (c *Client) GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Observation, error) {
	body, err := c.get(ctx, "weather", lat, lon, url.Values{"units": {"metric"}})
	if err != nil {
		return nil, err
	}

	var resp currentWeatherResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	obs := &weather.Observation{
		Lat:            lat,
		Lon:            lon,
		HasCoordinates: true,
		LocationName:   resp.Name,
		Temperature:    resp.Main.Temp,
		Humidity:       resp.Main.Humidity,
		Raw:            json.RawMessage(body),
		FetchedAt:      c.now(),
	}
	if resp.Dt > 0 {
		obs.ObservedAt = time.Unix(resp.Dt, 0).UTC()
	}
	if len(resp.Weather) > 0 {
		obs.Condition = resp.Weather[0].Main
		obs.Description = resp.Weather[0].Description
	}

	return obs, nil
}

// GetAirQuality fetches the current air pollution index for a location.
func (c *Client) GetAirQuality(ctx context.Context, lat, lon float64) (*weather.AirQuality, error) {
	body, err := c.get(ctx, "air_pollution", lat, lon, nil)
	if err != nil {
		return nil, err
	}

	var resp airPollutionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(resp.List) == 0 {
		return nil, weather.ErrNoAirQualityData
	}

	entry := resp.List[0]
	index := weather.AQI(entry.Main.AQI)
	if !index.Valid() {
		return nil, fmt.Errorf("air quality index out of range: %d", entry.Main.AQI)
	}

	aq := &weather.AirQuality{
		Lat:        lat,
		Lon:        lon,
		Index:      index,
		Components: entry.Components,
		FetchedAt:  c.now(),
	}
	if entry.Dt > 0 {
		aq.MeasuredAt = time.Unix(entry.Dt, 0).UTC()
	}

	return aq, nil
}

// get performs a GET against an API path and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, path string, lat, lon float64, extra url.Values) ([]byte, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	q.Set("appid", c.apiKey)
	for k, v := range extra {
		q[k] = v
	}
	endpoint := c.baseURL + "/" + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Msg("openweathermap returned non-200 status")
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, nil
}

// OpenWeatherMap API response structures.

type currentWeatherResponse struct {
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Dt   int64  `json:"dt"`
	Name string `json:"name"`
}

type airPollutionResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components map[string]float64 `json:"components"`
		Dt         int64              `json:"dt"`
	} `json:"list"`
}
