package handlers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

func routeSet(r *gin.Engine) map[string]bool {
	set := map[string]bool{}
	for _, rt := range r.Routes() {
		set[rt.Method+" "+rt.Path] = true
	}
	return set
}

func TestRegisterSubscriptionRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1")
	RegisterSubscriptionRoutes(g, nil, zap.NewNop().Sugar())

	routes := routeSet(r)
	require.True(t, routes["POST /api/v1/subscriptions"])
	require.True(t, routes["GET /api/v1/subscriptions"])
	require.True(t, routes["GET /api/v1/subscriptions/:id"])
	require.True(t, routes["PUT /api/v1/subscriptions/:id"])
	require.True(t, routes["DELETE /api/v1/subscriptions/:id"])
}

func TestRegisterUserRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1")
	RegisterUserRoutes(g, nil, nil, zap.NewNop().Sugar())

	routes := routeSet(r)
	require.True(t, routes["GET /api/v1/users/me"])
	require.True(t, routes["PUT /api/v1/users/me"])
	require.True(t, routes["DELETE /api/v1/users/me"])
}

func TestRegisterCityRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1")
	RegisterCityRoutes(g, nil, zap.NewNop().Sugar())

	routes := routeSet(r)
	require.True(t, routes["POST /api/v1/cities"])
	require.True(t, routes["GET /api/v1/cities"])
	require.True(t, routes["GET /api/v1/cities/:id"])
	require.True(t, routes["DELETE /api/v1/cities/:id"])
}

func TestRegisterWeatherRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1")
	RegisterWeatherRoutes(g, nil, nil, zap.NewNop().Sugar())

	require.True(t, routeSet(r)["GET /api/v1/weather/:city_id/latest"])
}

func TestRegisterHealthRoutes_RegistersEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterHealthRoutes(r)

	require.True(t, routeSet(r)["GET /healthz"])
}
