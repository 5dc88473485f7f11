// Package weather answers "what's the weather like?" questions using the
// free Open-Meteo forecast API, phrased for young children.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bluehawana/totoyai/internal/config"
)

const defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// coordinates for the supported cities. Unknown locations fall back to the
// configured default.
var locations = map[string]struct{ lat, lon float64 }{
	"stockholm":  {59.3293, 18.0686},
	"gothenburg": {57.7089, 11.9746},
	"malmo":      {55.6050, 13.0038},
}

// Report is the structured current-conditions answer.
type Report struct {
	Location           string    `json:"location"`
	TemperatureCelsius float64   `json:"temperature_celsius"`
	Condition          string    `json:"condition"`
	Description        string    `json:"description"`
	Timestamp          time.Time `json:"timestamp"`
}

// Client queries Open-Meteo.
type Client struct {
	baseURL         string
	defaultLocation string
	client          *http.Client
}

// New creates a weather client from config.
func New(cfg config.WeatherConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	defaultLocation := cfg.DefaultLocation
	if defaultLocation == "" {
		defaultLocation = "stockholm"
	}
	return &Client{
		baseURL:         defaultBaseURL,
		defaultLocation: defaultLocation,
		client:          &http.Client{Timeout: timeout},
	}
}

// SetBaseURL overrides the API endpoint. Test hook only.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// Current returns current conditions for a location name. Unknown locations
// resolve to the default location rather than failing — a child mispronouncing
// a city still deserves an answer.
func (c *Client) Current(ctx context.Context, location string) (*Report, error) {
	name := strings.ToLower(strings.TrimSpace(location))
	coords, ok := locations[name]
	if !ok {
		name = c.defaultLocation
		coords, ok = locations[name]
	}
	if !ok {
		// The configured default itself is unknown; never query (0, 0).
		name = "stockholm"
		coords = locations[name]
	}

	q := make(url.Values)
	q.Set("latitude", fmt.Sprintf("%.4f", coords.lat))
	q.Set("longitude", fmt.Sprintf("%.4f", coords.lon))
	q.Set("current", "temperature_2m,weather_code")
	q.Set("timezone", "Europe/Stockholm")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("weather failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
			WeatherCode int     `json:"weather_code"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding weather: %w", err)
	}

	temp := result.Current.Temperature
	code := result.Current.WeatherCode

	slog.Debug("weather lookup complete", "location", name, "temperature", temp, "code", code)

	return &Report{
		Location:           titleCase(name),
		TemperatureCelsius: temp,
		Condition:          conditionName(code),
		Description:        describe(temp, code),
		Timestamp:          time.Now().UTC(),
	}, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// conditionName maps Open-Meteo weather codes to coarse condition names.
func conditionName(code int) string {
	switch {
	case code == 0:
		return "sunny"
	case code >= 1 && code <= 3:
		return "cloudy"
	case code == 45 || code == 48:
		return "foggy"
	case (code >= 51 && code <= 65) || (code >= 80 && code <= 82):
		return "rainy"
	case code >= 71 && code <= 77:
		return "snowy"
	case code >= 95:
		return "stormy"
	default:
		return "variable"
	}
}

// describe builds a child-friendly narration of conditions and temperature.
func describe(temp float64, code int) string {
	var desc string
	switch {
	case code == 0:
		desc = "It's bright and sunny outside! Perfect for playing!"
	case code == 1 || code == 2:
		desc = "There are some fluffy clouds in the sky today!"
	case code == 3:
		desc = "The sky is covered with soft, gray clouds!"
	case code == 45 || code == 48:
		desc = "It's foggy outside, like walking through a cloud!"
	case code >= 51 && code <= 65:
		desc = "It's raining! Don't forget your umbrella and rain boots!"
	case code >= 71 && code <= 77:
		desc = "It's snowing! Time to build a snowman!"
	case code >= 80 && code <= 82:
		desc = "There are rain showers today!"
	case code >= 95:
		desc = "There's a thunderstorm! Let's stay inside and be cozy!"
	default:
		desc = "The weather is changing today!"
	}

	switch {
	case temp < 0:
		desc += " It's very cold, so bundle up warm!"
	case temp < 10:
		desc += " It's chilly, wear a jacket!"
	case temp < 20:
		desc += " It's nice and cool outside!"
	case temp < 25:
		desc += " It's warm and pleasant!"
	default:
		desc += " It's hot! Stay cool and drink water!"
	}

	return desc
}
