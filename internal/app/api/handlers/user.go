package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	subsvc "github.com/lin4lins/WeatherInBox-API/internal/app/service/subscription"
	usersvc "github.com/lin4lins/WeatherInBox-API/internal/app/service/user"
	"github.com/lin4lins/WeatherInBox-API/internal/app/api/middleware"
	"github.com/lin4lins/WeatherInBox-API/pkg/logctx"
	"github.com/lin4lins/WeatherInBox-API/pkg/response"
)

type registerUserRequest struct {
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required,min=8"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email" binding:"omitempty,email"`
	WebhookURL    string `json:"webhook_url" binding:"omitempty,url"`
	ReceiveEmails *bool  `json:"receive_emails"`
}

// ApiRegisterUser creates an account. This is the only unauthenticated write
// endpoint.
func ApiRegisterUser(users *usersvc.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		receiveEmails := true
		if req.ReceiveEmails != nil {
			receiveEmails = *req.ReceiveEmails
		}

		u, err := users.Register(c.Request.Context(), usersvc.RegisterRequest{
			Username:      req.Username,
			Password:      req.Password,
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Email:         req.Email,
			WebhookURL:    req.WebhookURL,
			ReceiveEmails: receiveEmails,
		})
		if err != nil {
			if errors.Is(err, usersvc.ErrUsernameTaken) {
				c.JSON(http.StatusConflict, response.ErrorT[any](response.APIResponseCodeConflict, err.Error()))
				return
			}
			logctx.FromGin(c, log).Errorw("failed to register user", "err", err)
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "failed to register user"))
			return
		}
		c.JSON(http.StatusCreated, response.OKT(u))
	}
}

func ApiGetCurrentUser(users *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := users.GetByID(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			if errors.Is(err, usersvc.ErrNotFound) {
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "user not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(u))
	}
}

type updateUserRequest struct {
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	Email         *string `json:"email" binding:"omitempty,email"`
	WebhookURL    *string `json:"webhook_url" binding:"omitempty,url"`
	ReceiveEmails *bool   `json:"receive_emails"`
	Password      *string `json:"password" binding:"omitempty,min=8"`
}

func ApiUpdateCurrentUser(users *usersvc.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		u, err := users.Update(c.Request.Context(), middleware.UserID(c), usersvc.UpdateRequest{
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Email:         req.Email,
			WebhookURL:    req.WebhookURL,
			ReceiveEmails: req.ReceiveEmails,
			Password:      req.Password,
		})
		if err != nil {
			if errors.Is(err, usersvc.ErrNotFound) {
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "user not found"))
				return
			}
			logctx.FromGin(c, log).Errorw("failed to update user", "err", err)
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "failed to update user"))
			return
		}
		c.JSON(http.StatusOK, response.OKT(u))
	}
}

// ApiDeleteCurrentUser removes the account. Subscriptions go first so their
// scheduled jobs are dropped with them.
func ApiDeleteCurrentUser(users *usersvc.Service, subs *subsvc.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		if err := subs.DeleteByUser(c.Request.Context(), userID); err != nil {
			logctx.FromGin(c, log).Errorw("failed to delete subscriptions", "err", err)
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "failed to delete user"))
			return
		}
		if err := users.Delete(c.Request.Context(), userID); err != nil {
			if errors.Is(err, usersvc.ErrNotFound) {
				c.JSON(http.StatusNotFound, response.ErrorT[any](response.APIResponseCodeNotFound, "user not found"))
				return
			}
			logctx.FromGin(c, log).Errorw("failed to delete user", "err", err)
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, "failed to delete user"))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// RegisterUserRoutes wires /users/me endpoints onto the authenticated group.
func RegisterUserRoutes(r gin.IRouter, users *usersvc.Service, subs *subsvc.Service, log *zap.SugaredLogger) {
	g := r.Group("/users")
	g.GET("/me", ApiGetCurrentUser(users))
	g.PUT("/me", ApiUpdateCurrentUser(users, log))
	g.DELETE("/me", ApiDeleteCurrentUser(users, subs, log))
}
