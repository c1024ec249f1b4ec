package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// NewEcho returns an echo instance with the shared error handler, request
// logging, a per-request context timeout and a health endpoint.
func NewEcho(requestTimeout time.Duration) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = echoErrorHandler
	e.Validator = NewRequestValidator()

	useEchoMiddleware(e, requestTimeout)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	return e
}

type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *RequestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}

	return nil
}

func echoErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	httpCode := http.StatusInternalServerError
	msg := any("Internal server error")

	httpErr := &echo.HTTPError{}
	if errors.As(err, &httpErr) {
		httpCode = httpErr.Code
		msg = httpErr.Message
	}

	slog.With("error", err, "status", httpCode).Error("HTTP error")

	var jsonErr error
	if c.Request().Method == http.MethodHead {
		jsonErr = c.NoContent(httpCode)
	} else {
		jsonErr = c.JSON(httpCode, map[string]any{
			"error": msg,
		})
	}
	if jsonErr != nil {
		slog.With("error", jsonErr).Error("Could not write error response")
	}
}

func useEchoMiddleware(e *echo.Echo, requestTimeout time.Duration) {
	e.Use(
		echomiddleware.RequestID(),
		echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
			LogURI:       true,
			LogRequestID: true,
			LogStatus:    true,
			LogMethod:    true,
			LogLatency:   true,
			LogError:     true,
			LogValuesFunc: func(c echo.Context, values echomiddleware.RequestLoggerValues) error {
				logger := slog.With(
					"URI", values.URI,
					"request_id", values.RequestID,
					"status", values.Status,
					"method", values.Method,
					"duration", values.Latency.String(),
				)
				if values.Error != nil {
					logger = logger.With("error", values.Error)
				}
				logger.Info("Request done")

				return nil
			},
		}),
	)

	if requestTimeout > 0 {
		e.Use(echomiddleware.ContextTimeout(requestTimeout))
	}
}
