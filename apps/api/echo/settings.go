package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/settings"
)

type settingsApi struct {
	svc        *settings.Service
	translator ut.Translator
}

func registerSettingsAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := settingsApi{svc: deps.SettingsSvc, translator: deps.Translator}

	sg := g.Group("/settings", jwt, adminMiddleware())
	sg.GET("", api.retrieve)
	sg.PUT("", api.save)
	sg.POST("/reset", api.reset)
}

func (api *settingsApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.Load(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

// save binds the body over the current settings so omitted fields keep their value.
func (api *settingsApi) save(ctx echo.Context) error {
	s, err := api.svc.Load(ctx.Request().Context())
	if err != nil {
		return err
	}
	if err := bind(ctx, &s, nil, nil); err != nil {
		return err
	}
	saved, err := api.svc.Save(ctx.Request().Context(), getContextSession(ctx), s)
	if err != nil {
		return core.TranslateValidationErrors(err, api.translator)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Settings saved.", "settings": saved})
}

func (api *settingsApi) reset(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"message":  "Settings reset to defaults. Save to apply them.",
		"settings": api.svc.ResetToDefaults(),
	})
}
