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

type createCityRequest struct {
	Name        string `json:"name" binding:"required"`
	CountryName string `json:"country_name" binding:"required"`
}

// ApiCreateCity resolves the city through the geocoder and stores it. An
// unresolvable name is a client error, not a server one.
func ApiCreateCity(cities *citysvc.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createCityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		city, err := cities.GetOrCreate(c.Request.Context(), req.Name, req.CountryName)
		if err != nil {
			if errors.Is(err, weather.ErrNotFound) {
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "city could not be geocoded"))
				return
			}
			logctx.FromGin(c, log).Errorw("failed to create city", "err", err)
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "failed to create city"))
			return
		}
		c.JSON(http.StatusCreated, response.OKT(city))
	}
}

func ApiListCities(cities *citysvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := cities.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(list))
	}
}

func ApiGetCity(cities *citysvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		city, err := cities.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, citysvc.ErrNotFound) {
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "city not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(city))
	}
}

func ApiDeleteCity(cities *citysvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := cities.Delete(c.Request.Context(), c.Param("id")); err != nil {
			if errors.Is(err, citysvc.ErrNotFound) {
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "city not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// RegisterCityRoutes wires the city catalog endpoints. Callers decide which
// group (and therefore which middleware) they land on; these are admin-only.
func RegisterCityRoutes(r gin.IRouter, cities *citysvc.Service, log *zap.SugaredLogger) {
	g := r.Group("/cities")
	g.POST("", ApiCreateCity(cities, log))
	g.GET("", ApiListCities(cities))
	g.GET("/:id", ApiGetCity(cities))
	g.DELETE("/:id", ApiDeleteCity(cities))
}
