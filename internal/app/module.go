package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/lin4lins/WeatherInBox-API/internal/app/api/server"
	"github.com/lin4lins/WeatherInBox-API/internal/app/scheduler"
	"github.com/lin4lins/WeatherInBox-API/internal/app/service/city"
	"github.com/lin4lins/WeatherInBox-API/internal/app/service/notifier"
	"github.com/lin4lins/WeatherInBox-API/internal/app/service/subscription"
	"github.com/lin4lins/WeatherInBox-API/internal/app/service/user"
	"github.com/lin4lins/WeatherInBox-API/internal/app/service/weather"
	"github.com/lin4lins/WeatherInBox-API/internal/platform/db"
	"github.com/lin4lins/WeatherInBox-API/pkg/config"
	"github.com/lin4lins/WeatherInBox-API/pkg/logger"
	"github.com/lin4lins/WeatherInBox-API/pkg/metrics"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 35 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	metrics.Module,
	db.Module,
	weather.Module,
	city.Module,
	user.Module,
	subscription.Module,
	notifier.Module,
	scheduler.Module,
	server.Module,
)
