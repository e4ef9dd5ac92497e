package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/counsellor"
)

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type counsellorApi struct {
	svc        *counsellor.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerCounsellorAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := counsellorApi{svc: deps.CounsellorSvc, validate: deps.Validate, translator: deps.Translator}

	cg := g.Group("/counsellors", jwt)
	cg.POST("/profile", api.completeProfile, rolesMiddleware(core.RoleCounsellor))
	cg.GET("", api.query, memberMiddleware())
	cg.GET("/stats", api.stats, memberMiddleware())
	cg.GET("/:id", api.retrieve, memberMiddleware())
	cg.PUT("/:id/status", api.setStatus, adminMiddleware())
	cg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *counsellorApi) query(ctx echo.Context) error {
	filter := counsellor.Filter{
		Status: counsellor.Status(queryString(ctx, "status")),
		Search: queryString(ctx, "search"),
	}
	list, err := api.svc.List(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *counsellorApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *counsellorApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *counsellorApi) setStatus(ctx echo.Context) error {
	var data StatusRequest
	if err := bind(ctx, &data, api.validate, api.translator); err != nil {
		return err
	}
	tr, err := api.svc.SetStatus(ctx.Request().Context(), ctx.Param("id"), counsellor.Status(data.Status))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": tr.Message, "transition": tr})
}

func (api *counsellorApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, core.Result{Success: true, Message: "Counsellor deleted."})
}

func (api *counsellorApi) completeProfile(ctx echo.Context) error {
	var data counsellor.ProfileInput
	if err := bind(ctx, &data, nil, nil); err != nil {
		return err
	}
	data.Clean()
	if err := api.validate.Struct(data); err != nil {
		return core.TranslateValidationErrors(err, api.translator)
	}
	tr, err := api.svc.CompleteProfile(ctx.Request().Context(), getContextSession(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": tr.Message, "transition": tr})
}
