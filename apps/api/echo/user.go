package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/user"
)

type DisabledRequest struct {
	Disabled bool `json:"disabled"`
}

type userApi struct {
	svc        *user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{svc: deps.UserSvc, validate: deps.Validate, translator: deps.Translator}

	ug := g.Group("/users", jwt)
	ug.GET("", api.query, memberMiddleware())
	ug.GET("/roles", api.roles, memberMiddleware())
	ug.GET("/:uid", api.retrieve, memberMiddleware())
	ug.PUT("/:uid", api.update, adminMiddleware())
	ug.PUT("/:uid/disabled", api.setDisabled, adminMiddleware())
	ug.DELETE("/:uid", api.destroy, adminMiddleware())
}

func (api *userApi) query(ctx echo.Context) error {
	disabled, err := queryBool(ctx, "disabled")
	if err != nil {
		return err
	}
	filter := user.QueryFilter{
		Search:   queryString(ctx, "search"),
		Role:     queryString(ctx, "role"),
		Disabled: disabled,
	}
	users, err := api.svc.List(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) roles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := api.svc.Get(ctx.Request().Context(), ctx.Param("uid"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	var data user.UpdateUser
	if err := bind(ctx, &data, nil, nil); err != nil {
		return err
	}
	data.Clean()
	if err := api.validate.Struct(data); err != nil {
		return core.TranslateValidationErrors(err, api.translator)
	}
	usr, err := api.svc.Update(ctx.Request().Context(), getContextSession(ctx), ctx.Param("uid"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) setDisabled(ctx echo.Context) error {
	var data DisabledRequest
	if err := bind(ctx, &data, nil, nil); err != nil {
		return err
	}
	usr, err := api.svc.SetDisabled(ctx.Request().Context(), getContextSession(ctx), ctx.Param("uid"), data.Disabled)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), getContextSession(ctx), ctx.Param("uid")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, core.Result{Success: true, Message: "User deleted."})
}
