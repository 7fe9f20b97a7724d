package router

import (
	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

// ServiceResult is what every handler returns. By default it renders as the
// {code, data, message} envelope; a non-nil Body replaces the envelope
// entirely for routes with a fixed public contract.
type ServiceResult struct {
	StatusCode int    `json:"code"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Body       any    `json:"-"`
}

type RateLimitResponse struct {
	Limit      int    `json:"limit"`
	Window     string `json:"window"`
	RetryAfter string `json:"retry_after"`
}

type HandlerFunction func(*RequestContext) *ServiceResult

// ErrorRenderer builds the body for errors raised by middleware (panics,
// oversized bodies, rate limits, timeouts) on a controller's routes.
type ErrorRenderer func(statusCode int, message string) any

type RESTController struct {
	name         string
	mountPoint   string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
	renderError  ErrorRenderer
}

func (result *ServiceResult) ToJSON() gin.H {
	return gin.H{
		"code":    result.StatusCode,
		"data":    result.Data,
		"message": result.Message,
	}
}

// Payload is the value written to the response body.
func (result *ServiceResult) Payload() any {
	if result.Body != nil {
		return result.Body
	}
	return result.ToJSON()
}
