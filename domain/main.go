package domain

import (
	"github.com/akeren/pingaroo/config"
	"github.com/akeren/pingaroo/domain/monitoring"
	"github.com/akeren/pingaroo/domain/waitlist"
	"github.com/akeren/pingaroo/pkg/constants"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	registrationsPerMinute := constants.DefaultWaitlistRegistrationsPerMinute
	if appConfig.Config != nil {
		registrationsPerMinute = appConfig.Config.WaitlistRateLimitRequests
	}

	var cache monitoring.Cache
	if appConfig.Cache != nil {
		cache = appConfig.Cache
	}

	appConfig.RouterService.MountController(monitoring.NewMonitoringController(appConfig.DB, appConfig.Logger, cache))
	appConfig.RouterService.MountController(
		waitlist.NewWaitlistServiceFactory(appConfig.DB, appConfig.Logger, cache, registrationsPerMinute).CreateController(),
	)
}
