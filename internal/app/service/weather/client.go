package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	cfgpkg "github.com/lin4lins/WeatherInBox-API/pkg/config"
)

// Reading is the raw current-weather payload mapped from the upstream API.
type Reading struct {
	Temperature       float64
	FeelsLike         float64
	WindSpeed         float64
	Rain1h            *float64
	Snow1h            *float64
	Pressure          int
	Humidity          int
	Visibility        int
	Cloudiness        int
	Status            string
	StatusDescription string
}

// Fetcher resolves coordinates to a current weather reading.
type Fetcher interface {
	Fetch(ctx context.Context, latitude, longitude float64) (*Reading, error)
}

// OpenWeatherClient fetches current weather from the OpenWeatherMap API.
// Requests go through a circuit breaker so a flapping upstream trips fast
// instead of burning the worker pool on timeouts.
type OpenWeatherClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherClient(cfg *cfgpkg.Config) *OpenWeatherClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	timeout := cfg.Weather.RequestTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	return &OpenWeatherClient{
		apiKey:  cfg.Weather.APIKey,
		baseURL: cfg.Weather.BaseURL,
		client:  &http.Client{Timeout: timeout},
		circuit: cb,
	}
}

func (c *OpenWeatherClient) Fetch(ctx context.Context, latitude, longitude float64) (*Reading, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", latitude))
	values.Set("lon", fmt.Sprintf("%f", longitude))
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")
	u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())

	body, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
			return nil, fmt.Errorf("%w: status %d", ErrNotFound, resp.StatusCode)
		default:
			return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
		}

		var payload openWeatherResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", ErrUpstreamUnavailable, err)
		}
		return payload.toReading(), nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: circuit open", ErrUpstreamUnavailable)
		}
		return nil, err
	}
	return body.(*Reading), nil
}

type openWeatherResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain struct {
		OneH *float64 `json:"1h"`
	} `json:"rain"`
	Snow struct {
		OneH *float64 `json:"1h"`
	} `json:"snow"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Visibility int `json:"visibility"`
	Weather    []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

func (p openWeatherResponse) toReading() *Reading {
	r := &Reading{
		Temperature: p.Main.Temp,
		FeelsLike:   p.Main.FeelsLike,
		WindSpeed:   p.Wind.Speed,
		Rain1h:      p.Rain.OneH,
		Snow1h:      p.Snow.OneH,
		Pressure:    p.Main.Pressure,
		Humidity:    p.Main.Humidity,
		Visibility:  p.Visibility,
		Cloudiness:  p.Clouds.All,
	}
	if len(p.Weather) > 0 {
		r.Status = p.Weather[0].Main
		r.StatusDescription = p.Weather[0].Description
	}
	return r
}
