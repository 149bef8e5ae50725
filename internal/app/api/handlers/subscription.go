package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lin4lins/WeatherInBox-API/internal/app/api/middleware"
	subsvc "github.com/lin4lins/WeatherInBox-API/internal/app/service/subscription"
	"github.com/lin4lins/WeatherInBox-API/internal/app/service/weather"
	"github.com/lin4lins/WeatherInBox-API/pkg/logctx"
	"github.com/lin4lins/WeatherInBox-API/pkg/response"
)

type createSubscriptionRequest struct {
	CityName    string `json:"city_name" binding:"required"`
	CountryName string `json:"country_name" binding:"required"`
	TimesPerDay int    `json:"times_per_day" binding:"required"`
}

func ApiCreateSubscription(subs *subsvc.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		sub, err := subs.Create(c.Request.Context(), subsvc.CreateRequest{
			UserID:      middleware.UserID(c),
			CityName:    req.CityName,
			CountryName: req.CountryName,
			TimesPerDay: req.TimesPerDay,
		})
		if err != nil {
			switch {
			case errors.Is(err, subsvc.ErrInvalidTimesPerDay):
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			case errors.Is(err, weather.ErrNotFound):
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "city could not be geocoded"))
			case errors.Is(err, subsvc.ErrAlreadyExists):
				c.JSON(http.StatusConflict, response.ErrorT[any](response.APIResponseCodeConflict, err.Error()))
			default:
				logctx.FromGin(c, log).Errorw("failed to create subscription", "err", err)
				c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "failed to create subscription"))
			}
			return
		}
		c.JSON(http.StatusCreated, response.OKT(sub))
	}
}

func ApiListSubscriptions(subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := subs.ListByUser(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(list))
	}
}

func ApiGetSubscription(subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := subs.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			if errors.Is(err, subsvc.ErrNotFound) {
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "subscription not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub))
	}
}

type updateSubscriptionRequest struct {
	TimesPerDay *int    `json:"times_per_day"`
	IsActive    *bool   `json:"is_active"`
	CityName    *string `json:"city_name"`
	CountryName *string `json:"country_name"`
}

// ApiUpdateSubscription changes frequency or active state. City fields are
// accepted in the payload only to produce a clear rejection: a subscription
// never moves between cities.
func ApiUpdateSubscription(subs *subsvc.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.CityName != nil || req.CountryName != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, subsvc.ErrCityImmutable.Error()))
			return
		}

		sub, err := subs.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), subsvc.UpdateRequest{
			TimesPerDay: req.TimesPerDay,
			IsActive:    req.IsActive,
		})
		if err != nil {
			switch {
			case errors.Is(err, subsvc.ErrInvalidTimesPerDay):
				c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			case errors.Is(err, subsvc.ErrNotFound):
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "subscription not found"))
			default:
				logctx.FromGin(c, log).Errorw("failed to update subscription", "err", err)
				c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "failed to update subscription"))
			}
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub))
	}
}

func ApiDeleteSubscription(subs *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := subs.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id"))
		if err != nil {
			if errors.Is(err, subsvc.ErrNotFound) {
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "subscription not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, subs *subsvc.Service, log *zap.SugaredLogger) {
	g := r.Group("/subscriptions")
	g.POST("", ApiCreateSubscription(subs, log))
	g.GET("", ApiListSubscriptions(subs))
	g.GET("/:id", ApiGetSubscription(subs))
	g.PUT("/:id", ApiUpdateSubscription(subs, log))
	g.DELETE("/:id", ApiDeleteSubscription(subs))
}
