package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	citysvc "github.com/lin4lins/WeatherInBox-API/internal/app/service/city"
	"github.com/lin4lins/WeatherInBox-API/internal/app/service/weather"
	"github.com/lin4lins/WeatherInBox-API/pkg/logctx"
	"github.com/lin4lins/WeatherInBox-API/pkg/response"
)

// ApiLatestWeather serves the freshest snapshot for a city, fetching from the
// upstream provider when the cached one is older than the freshness window.
func ApiLatestWeather(cities *citysvc.Service, svc *weather.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		city, err := cities.GetByID(c.Request.Context(), c.Param("city_id"))
		if err != nil {
			if errors.Is(err, citysvc.ErrNotFound) {
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "city not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}

		snap, _, err := svc.SnapshotForCity(c.Request.Context(), city)
		if err != nil {
			if errors.Is(err, weather.ErrUpstreamUnavailable) {
				// fall back to whatever we have on record
				snap, err = svc.LatestForCity(c.Request.Context(), city.ID)
				if err == nil {
					c.JSON(http.StatusOK, response.OKT(snap))
					return
				}
				c.JSON(http.StatusServiceUnavailable, response.ErrorT[any](response.APIResponseCodeError, "weather provider unavailable"))
				return
			}
			if errors.Is(err, weather.ErrNotFound) {
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "no weather data for city"))
				return
			}
			logctx.FromGin(c, log).Errorw("failed to fetch weather", "city_id", city.ID, "err", err)
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "failed to fetch weather"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(snap))
	}
}

func RegisterWeatherRoutes(r gin.IRouter, cities *citysvc.Service, svc *weather.Service, log *zap.SugaredLogger) {
	r.GET("/weather/:city_id/latest", ApiLatestWeather(cities, svc, log))
}
