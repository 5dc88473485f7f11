package weather_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluehawana/totoyai/internal/config"
	"github.com/bluehawana/totoyai/internal/weather"
)

func newServer(t *testing.T, temperature float64, code int, capture *map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			params := map[string]string{}
			for k := range r.URL.Query() {
				params[k] = r.URL.Query().Get(k)
			}
			*capture = params
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"current":{"temperature_2m":%g,"weather_code":%d}}`, temperature, code)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCurrent(t *testing.T) {
	var params map[string]string
	srv := newServer(t, 22.5, 0, &params)

	c := weather.New(config.WeatherConfig{})
	c.SetBaseURL(srv.URL)

	report, err := c.Current(context.Background(), "stockholm")
	require.NoError(t, err)

	assert.Equal(t, "Stockholm", report.Location)
	assert.Equal(t, 22.5, report.TemperatureCelsius)
	assert.Equal(t, "sunny", report.Condition)
	assert.Contains(t, report.Description, "sunny")
	assert.Contains(t, report.Description, "warm and pleasant")

	assert.Equal(t, "59.3293", params["latitude"])
	assert.Equal(t, "18.0686", params["longitude"])
	assert.Equal(t, "temperature_2m,weather_code", params["current"])
}

func TestCurrentUnknownLocationUsesDefault(t *testing.T) {
	var params map[string]string
	srv := newServer(t, -3, 73, &params)

	c := weather.New(config.WeatherConfig{DefaultLocation: "gothenburg"})
	c.SetBaseURL(srv.URL)

	report, err := c.Current(context.Background(), "atlantis")
	require.NoError(t, err)

	assert.Equal(t, "Gothenburg", report.Location)
	assert.Equal(t, "snowy", report.Condition)
	assert.Contains(t, report.Description, "snowman")
	assert.Contains(t, report.Description, "bundle up")
	assert.Equal(t, "57.7089", params["latitude"])
}

func TestCurrentUnknownDefaultFallsBackToStockholm(t *testing.T) {
	var params map[string]string
	srv := newServer(t, 18, 0, &params)

	c := weather.New(config.WeatherConfig{DefaultLocation: "atlantis"})
	c.SetBaseURL(srv.URL)

	report, err := c.Current(context.Background(), "narnia")
	require.NoError(t, err)

	assert.Equal(t, "Stockholm", report.Location)
	assert.Equal(t, "59.3293", params["latitude"])
	assert.Equal(t, "18.0686", params["longitude"])
}

func TestCurrentUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	c := weather.New(config.WeatherConfig{})
	c.SetBaseURL(srv.URL)

	_, err := c.Current(context.Background(), "stockholm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestConditionBuckets(t *testing.T) {
	cases := []struct {
		code int
		want string
	}{
		{0, "sunny"},
		{2, "cloudy"},
		{45, "foggy"},
		{61, "rainy"},
		{81, "rainy"},
		{75, "snowy"},
		{95, "stormy"},
		{40, "variable"},
	}

	for _, tc := range cases {
		srv := newServer(t, 15, tc.code, nil)
		c := weather.New(config.WeatherConfig{})
		c.SetBaseURL(srv.URL)

		report, err := c.Current(context.Background(), "malmo")
		require.NoError(t, err)
		assert.Equal(t, tc.want, report.Condition, "code %d", tc.code)
	}
}
