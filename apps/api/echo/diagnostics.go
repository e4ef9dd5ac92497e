package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/speakhq/speakadmin/core"
	emailsvc "github.com/speakhq/speakadmin/services/email"
)

// registerDiagnosticsAPI mounts the unauthenticated operator endpoints.
func registerDiagnosticsAPI(g *echo.Group, deps ServerDeps) {
	g.GET("/test-email", func(ctx echo.Context) error {
		to := core.CleanString(ctx.QueryParam("email"), true /* lower */)
		if to == "" {
			return ctx.JSON(http.StatusBadRequest, core.Result{Message: "Missing email parameter"})
		}
		res := emailsvc.TestConfiguration(ctx.Request().Context(), deps.Mail, deps.Conf, to)
		if !res.Success {
			deps.Logger.Warn("test email failed", map[string]interface{}{"to": to, "message": res.Message})
			return ctx.JSON(http.StatusInternalServerError, res)
		}
		return ctx.JSON(http.StatusOK, res)
	})
}
