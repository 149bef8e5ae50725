package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *OpenWeatherClient {
	return &OpenWeatherClient{
		apiKey:  "test-key",
		baseURL: baseURL,
		client:  &http.Client{Timeout: 2 * time.Second},
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "test"}),
	}
}

func TestOpenWeatherClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("appid"))
		require.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"main": {"temp": 11.5, "feels_like": 9.8, "pressure": 1012, "humidity": 71},
			"wind": {"speed": 4.2},
			"rain": {"1h": 0.3},
			"clouds": {"all": 40},
			"visibility": 10000,
			"weather": [{"main": "Rain", "description": "light rain"}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	r, err := c.Fetch(context.Background(), 50.45, 30.52)
	require.NoError(t, err)
	require.Equal(t, 11.5, r.Temperature)
	require.Equal(t, 9.8, r.FeelsLike)
	require.Equal(t, 4.2, r.WindSpeed)
	require.NotNil(t, r.Rain1h)
	require.Equal(t, 0.3, *r.Rain1h)
	require.Nil(t, r.Snow1h)
	require.Equal(t, 1012, r.Pressure)
	require.Equal(t, 71, r.Humidity)
	require.Equal(t, 10000, r.Visibility)
	require.Equal(t, 40, r.Cloudiness)
	require.Equal(t, "Rain", r.Status)
	require.Equal(t, "light rain", r.StatusDescription)
}

func TestOpenWeatherClient_Fetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), 0, 0)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenWeatherClient_Fetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), 0, 0)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestOpenWeatherClient_Fetch_CircuitOpenMapsToUpstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "test-open",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	})

	_, err := c.Fetch(context.Background(), 0, 0)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)

	// The breaker is open now; the error kind stays the same.
	_, err = c.Fetch(context.Background(), 0, 0)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}
