package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/lin4lins/WeatherInBox-API/internal/app/api/handlers"
	mw "github.com/lin4lins/WeatherInBox-API/internal/app/api/middleware"
	citysvc "github.com/lin4lins/WeatherInBox-API/internal/app/service/city"
	subsvc "github.com/lin4lins/WeatherInBox-API/internal/app/service/subscription"
	usersvc "github.com/lin4lins/WeatherInBox-API/internal/app/service/user"
	"github.com/lin4lins/WeatherInBox-API/internal/app/service/weather"
	cfgpkg "github.com/lin4lins/WeatherInBox-API/pkg/config"
	"github.com/lin4lins/WeatherInBox-API/pkg/metrics"
)

func newEngine(collector *metrics.Collector) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request tracing and metrics apply to every route; request logger &
	// access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	r.Use(collector.GinMiddleware())
	return r
}

func registerRoutes(
	r *gin.Engine,
	log *zap.SugaredLogger,
	cfg *cfgpkg.Config,
	users *usersvc.Service,
	cities *citysvc.Service,
	subs *subsvc.Service,
	weatherSvc *weather.Service,
) {
	// Public group: request logger + access log
	pub := r.Group("/api")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(r)
	handlers.RegisterTokenRoutes(pub, users)
	pub.POST("/v1/users", handlers.ApiRegisterUser(users, log))

	// Protected group using auth middleware
	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.AuthMiddleware(cfg))
	handlers.RegisterUserRoutes(apiV1, users, subs, log)
	handlers.RegisterSubscriptionRoutes(apiV1, subs, log)
	handlers.RegisterWeatherRoutes(apiV1, cities, weatherSvc, log)

	// City catalog is maintained by operators
	admin := apiV1.Group("")
	admin.Use(mw.RequireAdmin())
	handlers.RegisterCityRoutes(admin, cities, log)
}

func serveMetrics(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config) {
	metrics.Serve(lc, log, cfg.MetricsAddr)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(serveMetrics),
	fx.Invoke(runServer),
)
