package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/speakhq/speakadmin/core"
)

var (
	memberRoles = []string{core.RoleSuperadmin, core.RoleAdmin, core.RoleUser}
	adminRoles  = []string{core.RoleSuperadmin, core.RoleAdmin}
)

// rolesMiddleware lets through callers holding one of roles.
func rolesMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return rolesMiddleware(adminRoles...)
}

func memberMiddleware() echo.MiddlewareFunc {
	return rolesMiddleware(memberRoles...)
}

// RequestObserver records handled requests.
type RequestObserver interface {
	ObserveRequest(method, path string, status int, took time.Duration)
}

func metricsMiddleware(obs RequestObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			status := ctx.Response().Status
			if herr, ok := err.(*echo.HTTPError); ok {
				status = herr.Code
			} else if err != nil {
				status = statusOf(err)
			}
			obs.ObserveRequest(ctx.Request().Method, ctx.Path(), status, time.Since(start))
			return err
		}
	}
}
