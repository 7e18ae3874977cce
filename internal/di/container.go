package di

import (
	"github.com/clubhub/calendar-service/internal/handler"
	"github.com/clubhub/calendar-service/internal/repository"
	"github.com/clubhub/calendar-service/internal/service"
	"github.com/clubhub/calendar-service/internal/upstream"
	"github.com/clubhub/calendar-service/pkg/config"
	"github.com/clubhub/calendar-service/pkg/redis"
)

// Container holds all dependencies for the calendar service
type Container struct {
	// Infrastructure
	Redis *redis.Client

	// Upstream clients
	EventsClient    *upstream.EventsClient
	GamesClient     *upstream.GamesClient
	PracticesClient *upstream.PracticesClient
	StaffClient     *upstream.StaffClient

	// Cache
	CalendarCache repository.CalendarCache

	// Publishers
	NotificationPublisher service.NotificationPublisher

	// Services
	CalendarService service.CalendarService
	StaffService    service.StaffService

	// Handlers
	HealthHandler   *handler.HealthHandler
	CalendarHandler *handler.CalendarHandler
	StaffHandler    *handler.StaffHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config    *config.Config
	Redis     *redis.Client
	Publisher service.NotificationPublisher
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	appCfg := cfg.Config

	c := &Container{
		Redis:                 cfg.Redis,
		NotificationPublisher: cfg.Publisher,
	}

	// Upstream clients
	timeout := appCfg.Upstreams.RequestTimeout
	c.EventsClient = upstream.NewEventsClient(appCfg.Upstreams.EventsServiceURL, timeout)
	c.GamesClient = upstream.NewGamesClient(appCfg.Upstreams.GamesServiceURL, timeout)
	c.PracticesClient = upstream.NewPracticesClient(appCfg.Upstreams.PracticesServiceURL, timeout)
	c.StaffClient = upstream.NewStaffClient(appCfg.Upstreams.StaffServiceURL, timeout)

	// Cache (nil when disabled or redis is down; services treat that as
	// always-miss)
	if appCfg.Calendar.CacheEnabled && c.Redis != nil {
		c.CalendarCache = repository.NewRedisCalendarCache(c.Redis, appCfg.Calendar.CacheTTL)
	}

	// Services
	c.CalendarService = service.NewCalendarService(
		c.EventsClient,
		c.GamesClient,
		c.PracticesClient,
		c.CalendarCache,
		&service.CalendarServiceConfig{
			DefaultWindow: appCfg.Calendar.DefaultWindow,
		},
	)
	c.StaffService = service.NewStaffService(
		c.EventsClient,
		c.StaffClient,
		c.CalendarCache,
		c.NotificationPublisher,
		&service.StaffServiceConfig{},
	)

	// Handlers
	c.HealthHandler = handler.NewHealthHandler(appCfg.App.Name, appCfg.App.Version, c.Redis)
	c.CalendarHandler = handler.NewCalendarHandler(c.CalendarService)
	c.StaffHandler = handler.NewStaffHandler(c.StaffService)

	return c
}
