package waitlist

import (
	"github.com/akeren/pingaroo/config/router"
	"github.com/akeren/pingaroo/internal/log"
	"github.com/akeren/pingaroo/pkg/factory"
	"gorm.io/gorm"
)

type WaitlistServiceFactory interface {
	CreateService() WaitlistService
	CreateController() *router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	db                     *gorm.DB
	logger                 *log.Logger
	cache                  factory.Cache
	registrationsPerMinute int
}

func NewWaitlistServiceFactory(db *gorm.DB, logger *log.Logger, cache factory.Cache, registrationsPerMinute int) WaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		db:                     db,
		logger:                 logger,
		cache:                  cache,
		registrationsPerMinute: registrationsPerMinute,
	}
}

// CreateService builds a service without metrics, for callers outside the HTTP server.
func (f *DefaultWaitlistServiceFactory) CreateService() WaitlistService {
	repository := NewWaitlistRepository(f.db, newStoreBreaker(f.logger))
	return NewWaitlistService(f.logger, repository, nil)
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	return NewWaitlistController(f.db, f.logger, f.cache, f.registrationsPerMinute)
}
