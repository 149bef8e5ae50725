package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kelvins/geocoder"

	cfgpkg "github.com/lin4lins/WeatherInBox-API/pkg/config"
)

// Geocoder resolves a (city, country) pair to coordinates. Called once per
// new city; the result is cached on the City row and never recomputed.
type Geocoder interface {
	Resolve(ctx context.Context, cityName, countryName string) (latitude, longitude float64, err error)
}

// NewGeocoder selects the backend from config: the OpenWeather direct
// geocoding API by default, or Google when geocoding.provider=google.
func NewGeocoder(cfg *cfgpkg.Config) (Geocoder, error) {
	switch cfg.Geocoding.Provider {
	case "", "openweather":
		return &openWeatherGeocoder{
			apiKey:  cfg.Weather.APIKey,
			baseURL: cfg.Weather.GeoBaseURL,
			client:  &http.Client{Timeout: cfg.Weather.RequestTimeout},
		}, nil
	case "google":
		if cfg.Geocoding.GoogleAPIKey == "" {
			return nil, fmt.Errorf("geocoding: google provider requires geocoding.google_api_key")
		}
		geocoder.ApiKey = cfg.Geocoding.GoogleAPIKey
		return &googleGeocoder{}, nil
	default:
		return nil, fmt.Errorf("geocoding: unknown provider %q", cfg.Geocoding.Provider)
	}
}

type openWeatherGeocoder struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func (g *openWeatherGeocoder) Resolve(ctx context.Context, cityName, countryName string) (float64, float64, error) {
	values := url.Values{}
	values.Set("q", fmt.Sprintf("%s,%s", cityName, countryName))
	values.Set("appid", g.apiKey)
	values.Set("limit", "1")
	u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 {
			return 0, 0, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
		}
		return 0, 0, fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
	}

	var places []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return 0, 0, fmt.Errorf("%w: decode: %v", ErrUpstreamUnavailable, err)
	}
	// The API answers unknown places with an empty array, not a 404.
	if len(places) == 0 {
		return 0, 0, fmt.Errorf("%w: %s, %s", ErrNotFound, cityName, countryName)
	}
	return places[0].Lat, places[0].Lon, nil
}

type googleGeocoder struct{}

func (g *googleGeocoder) Resolve(_ context.Context, cityName, countryName string) (float64, float64, error) {
	loc, err := geocoder.Geocoding(geocoder.Address{City: cityName, Country: countryName})
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return loc.Latitude, loc.Longitude, nil
}
