package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpenWeatherGeocoder_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Kyiv,Ukraine", r.URL.Query().Get("q"))
		require.Equal(t, "1", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat": 50.4501, "lon": 30.5234}]`))
	}))
	defer srv.Close()

	g := &openWeatherGeocoder{apiKey: "k", baseURL: srv.URL, client: &http.Client{Timeout: time.Second}}
	lat, lon, err := g.Resolve(context.Background(), "Kyiv", "Ukraine")
	require.NoError(t, err)
	require.Equal(t, 50.4501, lat)
	require.Equal(t, 30.5234, lon)
}

func TestOpenWeatherGeocoder_Resolve_EmptyResultIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := &openWeatherGeocoder{apiKey: "k", baseURL: srv.URL, client: &http.Client{Timeout: time.Second}}
	_, _, err := g.Resolve(context.Background(), "Atlantis", "Nowhere")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenWeatherGeocoder_Resolve_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := &openWeatherGeocoder{apiKey: "k", baseURL: srv.URL, client: &http.Client{Timeout: time.Second}}
	_, _, err := g.Resolve(context.Background(), "Kyiv", "Ukraine")
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}
