package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	svc := deps.AnalyticsSvc
	g.GET("/dashboard", func(ctx echo.Context) error {
		d, err := svc.Dashboard(ctx.Request().Context())
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, d)
	}, jwt, memberMiddleware())
}
