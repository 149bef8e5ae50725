package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	usersvc "github.com/lin4lins/WeatherInBox-API/internal/app/service/user"
	"github.com/lin4lins/WeatherInBox-API/pkg/response"
)

type obtainTokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type obtainTokenResponse struct {
	Access string `json:"access"`
	UserID string `json:"user_id"`
}

// ApiObtainToken exchanges credentials for a bearer token. The user id rides
// along in the response so clients do not need a follow-up lookup.
func ApiObtainToken(users *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req obtainTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		u, err := users.Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, usersvc.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "invalid credentials"))
				return
			}
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}

		token, err := users.IssueToken(u)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(obtainTokenResponse{Access: token, UserID: u.ID}))
	}
}

func RegisterTokenRoutes(r gin.IRouter, users *usersvc.Service) {
	r.POST("/token", ApiObtainToken(users))
}
