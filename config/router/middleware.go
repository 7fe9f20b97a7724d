package router

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/pingaroo/internal/log"
	apperrors "github.com/akeren/pingaroo/pkg/errors"
	"github.com/akeren/pingaroo/pkg/ratelimit"
	"github.com/akeren/pingaroo/pkg/utils"
	"github.com/gin-gonic/gin"
)

const correlationIDHeader = "X-Correlation-ID"

const messageInternalError = "An internal server error occurred."

// controllerFor returns the controller owning the matched route, or nil.
func (routerService *RouterService) controllerFor(c *gin.Context) *RESTController {
	return routerService.handlerToControllerMap[routerService.keyForPathAndMethod(c.FullPath(), c.Request.Method)]
}

// abortWithError renders middleware errors in the owning controller's format,
// falling back to the standard envelope.
func (routerService *RouterService) abortWithError(c *gin.Context, statusCode int, message string, data any) {
	if controller := routerService.controllerFor(c); controller != nil && controller.renderError != nil {
		c.AbortWithStatusJSON(statusCode, controller.renderError(statusCode, message))
		return
	}
	c.AbortWithStatusJSON(statusCode, ErrorResult(statusCode, message, data).ToJSON())
}

// recoveryMiddleware keeps panics from producing a non-JSON 500.
func (routerService *RouterService) recoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.GetLoggerInstanceFromContext(c.Request.Context(), routerService.logger).Error("Recovered from panic",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"panic", fmt.Sprint(recovered),
		)
		routerService.abortWithError(c, http.StatusInternalServerError, messageInternalError, nil)
	})
}

func (routerService *RouterService) correlationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(correlationIDHeader))
		if id == "" || len(id) > 128 {
			id = log.GenerateCorrelationID()
		}
		c.Request = c.Request.WithContext(log.ContextWithCorrelationID(c.Request.Context(), id))
		c.Header(correlationIDHeader, id)
		c.Next()
	}
}

func (routerService *RouterService) loggerInjectionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlatedLogger := routerService.logger.WithCorrelationID(c.Request.Context())
		c.Request = c.Request.WithContext(log.ContextWithLogger(c.Request.Context(), correlatedLogger))
		c.Next()
	}
}

func (routerService *RouterService) requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		log.GetLoggerInstanceFromContext(c.Request.Context(), routerService.logger).Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"remote_addr", c.ClientIP(),
		)
	}
}

func (routerService *RouterService) securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		// HSTS: only set when we believe the request is effectively HTTPS.
		// Enabled by default in production; can be overridden via HSTS_ENABLED.
		if shouldSetHSTS(c) {
			h.Set("Strict-Transport-Security", buildHSTSValue())
		}
		c.Next()
	}
}

func shouldSetHSTS(c *gin.Context) bool {
	appEnv := strings.ToLower(utils.GetEnvTrimmed("APP_ENV"))

	if !utils.GetEnvBool("HSTS_ENABLED", appEnv == "production" || appEnv == "prod") {
		return false
	}

	if c.Request.TLS != nil {
		return true
	}
	// Common setup when TLS is terminated at a reverse proxy.
	proto := strings.ToLower(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")))
	return proto == "https"
}

func buildHSTSValue() string {
	maxAge := int64(31536000)
	if raw := utils.GetEnvTrimmed("HSTS_MAX_AGE"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			maxAge = parsed
		}
	}

	value := fmt.Sprintf("max-age=%d", maxAge)
	if utils.GetEnvBool("HSTS_INCLUDE_SUBDOMAINS", true) {
		value += "; includeSubDomains"
	}
	return value
}

func (routerService *RouterService) maxBodySizeMiddleware() gin.HandlerFunc {
	maxBytes := routerService.middlewareConfig.MaxBodyBytes

	return func(c *gin.Context) {
		// Fast-path for known-size bodies.
		if c.Request.ContentLength > maxBytes {
			routerService.abortWithError(c, http.StatusRequestEntityTooLarge, "Request payload too large", nil)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func (routerService *RouterService) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range routerService.middlewareConfig.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// corsMiddleware answers preflights for allowed origins and otherwise only
// decorates responses; the browser enforces the policy.
func (routerService *RouterService) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if !routerService.originAllowed(origin) {
			if origin != "" && len(routerService.middlewareConfig.AllowedOrigins) > 0 {
				routerService.logger.Debug("CORS origin not allowed", "origin", origin)
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, "+correlationIDHeader)
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		h.Set("Access-Control-Expose-Headers", correlationIDHeader+", Retry-After")
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(apperrors.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (routerService *RouterService) timeoutMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timeout := routerService.middlewareConfig.TimeoutDuration
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		// Important: do NOT call c.Next() in a goroutine.
		// Gin's Context is not safe for concurrent use.
		c.Next()

		// If the handler chain completed but exceeded the deadline and nothing
		// was written, return a 408. Enforcement mid-flight is handled by the
		// http.Server Read/WriteTimeouts.
		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			log.GetLoggerInstanceFromContext(c.Request.Context(), routerService.logger).Warn("Request timeout detected")
			routerService.abortWithError(c, apperrors.StatusRequestTimeout, "Request timeout", nil)
		}
	}
}

// limiterFor resolves handler overrides over controller overrides over the
// default. Unmapped routes use the default so 404 and 405 are limited too.
func (routerService *RouterService) limiterFor(c *gin.Context) ratelimit.RateLimiter {
	handlerKey := routerService.keyForPathAndMethod(c.FullPath(), c.Request.Method)

	if limiter, ok := routerService.rateLimitOverrides[handlerKey]; ok {
		return limiter
	}

	if controller := routerService.controllerFor(c); controller != nil {
		if limiter, ok := routerService.rateLimitOverrides[controller.mountPoint]; ok {
			return limiter
		}
	}

	return routerService.rateLimiter
}

func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := routerService.limiterFor(c)
		if limiter == nil {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		limit, window := limiter.GetLimitDetails()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Window", window.String())

		limited, err := limiter.IsLimited(c.Request.Context(), "ratelimit:"+clientIP)
		if err != nil {
			// Fail open: an unavailable limiter backend must not take the site down.
			routerService.logger.Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}

		if limited {
			routerService.logger.Warn("Rate limit exceeded", "client_ip", clientIP, "path", c.Request.URL.Path)
			routerService.observeRateLimited(c)
			retryAfterSeconds := int(math.Ceil(window.Seconds()))
			if retryAfterSeconds < 1 {
				retryAfterSeconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
			routerService.abortWithError(c, http.StatusTooManyRequests, "Too Many Requests", RateLimitResponse{
				Limit:      limit,
				Window:     window.String(),
				RetryAfter: strconv.Itoa(retryAfterSeconds),
			})
			return
		}

		c.Next()
	}
}
