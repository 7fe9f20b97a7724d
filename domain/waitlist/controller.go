package waitlist

import (
	"net/http"
	"time"

	"github.com/akeren/pingaroo/config/router"
	"github.com/akeren/pingaroo/internal/log"
	"github.com/akeren/pingaroo/pkg/circuitbreaker"
	"github.com/akeren/pingaroo/pkg/constants"
	apperrors "github.com/akeren/pingaroo/pkg/errors"
	"github.com/akeren/pingaroo/pkg/factory"
	"github.com/akeren/pingaroo/pkg/ratelimit"
	"gorm.io/gorm"
)

// DefaultRegistrationsPerMinute is the per-client limit on POST /api/waitlist.
const DefaultRegistrationsPerMinute = constants.DefaultWaitlistRegistrationsPerMinute

func NewWaitlistController(
	db *gorm.DB,
	logger *log.Logger,
	cache factory.Cache,
	registrationsPerMinute int,
) *router.RESTController {

	return router.NewRESTController(
		"WaitlistController",
		"/api/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewWaitlistRepository(db, newStoreBreaker(logger))
			service := NewWaitlistService(logger, repository, NewRegistrationMetrics(rs.MetricsRegisterer()))

			registrationLimiter := createRegistrationRateLimiter(cache, logger, registrationsPerMinute)

			rs.AddPostHandler(c, registrationLimiter, "", registerHandler(service))
		},
	).RenderErrorsWith(renderError)
}

// renderError keeps middleware failures on POST /api/waitlist in the
// {"error": "..."} shape its clients parse.
func renderError(statusCode int, message string) any {
	if statusCode >= http.StatusInternalServerError {
		message = MessageInternalError
	}
	return ErrorResponse{Error: message}
}

func newStoreBreaker(logger *log.Logger) circuitbreaker.CircuitBreaker {
	cfg := circuitbreaker.DefaultConfig()
	cfg.OnStateChange = func(from, to circuitbreaker.CircuitState) {
		logger.Warn("Waitlist store circuit changed state", "from", from.String(), "to", to.String())
	}
	return circuitbreaker.NewCircuitBreaker(cfg)
}

// The limiter shares Redis with the router when a cache is configured, so the
// limit holds across instances.
func createRegistrationRateLimiter(cache factory.Cache, logger *log.Logger, perMinute int) ratelimit.RateLimiter {
	if perMinute <= 0 {
		perMinute = DefaultRegistrationsPerMinute
	}

	return factory.NewDefaultRateLimiterFactory("waitlist", perMinute, time.Minute, cache, logger).CreateRateLimiter()
}

func registerHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req RegisterRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			fieldErrors := apperrors.FormatValidationErrors(err, &req)
			if len(fieldErrors) > 0 {
				logger.Info("Rejected waitlist payload", "fields", fieldErrors)
				return router.BodyResult(http.StatusBadRequest, FieldErrorResponse{Error: fieldErrors})
			}

			logger.Info("Failed to parse waitlist payload", "error", err)
			return router.BodyResult(http.StatusBadRequest, ErrorResponse{Error: MessageInvalidBody})
		}

		confirmation, err := service.Register(ctx.Request.Context(), *req.Email)
		if err != nil {
			status := apperrors.HTTPStatusCode(err)
			if fields := apperrors.GetFieldErrors(err); len(fields) > 0 && status == http.StatusBadRequest {
				return router.BodyResult(status, FieldErrorResponse{Error: fields})
			}

			return router.BodyResult(http.StatusInternalServerError, ErrorResponse{Error: MessageInternalError})
		}

		return router.BodyResult(http.StatusCreated, MessageResponse{Message: confirmation.Message})
	}
}
