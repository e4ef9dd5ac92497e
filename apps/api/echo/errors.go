package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/speakhq/speakadmin/core"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// errorResponse is the {success, message} shape every failure is rendered with.
type errorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// statusOf maps a core error kind to its HTTP status.
func statusOf(err error) int {
	switch core.KindOf(err) {
	case core.KindInvalidArgument:
		return http.StatusBadRequest
	case core.KindForbidden:
		return http.StatusForbidden
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindAlreadyExists, core.KindConflict:
		return http.StatusConflict
	case core.KindMailError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		resp := errorResponse{}
		var code int

		var (
			herr *echo.HTTPError
			verr *core.ValidationError
			cerr *core.Error
		)
		switch {
		case errors.As(err, &herr):
			if herr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
			} else {
				if herr.Internal != nil {
					if inner, ok := herr.Internal.(*echo.HTTPError); ok {
						herr = inner
					}
				}
				code = herr.Code
			}
			if msg, ok := herr.Message.(string); ok {
				resp.Message = msg
			} else {
				resp.Message = http.StatusText(code)
			}
		case errors.As(err, &verr):
			code = http.StatusBadRequest
			resp.Message = verr.Error()
			if len(verr.Fields) > 0 {
				resp.Errors = make(map[string]string, len(verr.Fields))
				for _, fErr := range verr.Fields {
					resp.Errors[fErr.Field] = fErr.Error
				}
			}
		case errors.As(err, &cerr):
			code = statusOf(cerr)
			resp.Message = cerr.Error()
			if code >= http.StatusInternalServerError {
				logger.Error(resp.Message, err, getContextSession(ctx))
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			resp.Message = http.StatusText(code)
			logger.Error(resp.Message, errors.Wrap(err, resp.Message), getContextSession(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
			if ctx.Echo().Debug {
				resp.Message = err.Error()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
