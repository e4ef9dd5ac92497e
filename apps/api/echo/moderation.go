package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/speakhq/speakadmin/core/moderation"
)

type DecisionRequest struct {
	Note string `json:"note"`
}

type moderationApi struct {
	svc *moderation.Service
}

func registerModerationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := moderationApi{svc: deps.ModerationSvc}

	mg := g.Group("/moderation", jwt)
	mg.GET("", api.query, memberMiddleware())
	mg.GET("/:type/:id", api.retrieve, memberMiddleware())
	mg.POST("/:type/:id/approve", api.approve, adminMiddleware())
	mg.POST("/:type/:id/reject", api.reject, adminMiddleware())
	mg.DELETE("/:type/:id", api.destroy, adminMiddleware())
}

func contentRef(ctx echo.Context) moderation.Ref {
	return moderation.Ref{Type: moderation.Type(ctx.Param("type")), ID: ctx.Param("id")}
}

func (api *moderationApi) query(ctx echo.Context) error {
	before, err := queryTime(ctx, "before")
	if err != nil {
		return err
	}
	limit, err := queryInt(ctx, "limit")
	if err != nil {
		return err
	}
	filter := moderation.Filter{
		Status: moderation.Status(queryString(ctx, "status")),
		Type:   moderation.Type(queryString(ctx, "type")),
		Search: queryString(ctx, "search"),
		Before: before,
		After:  queryString(ctx, "after"),
		Limit:  limit,
	}
	page, err := api.svc.List(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *moderationApi) retrieve(ctx echo.Context) error {
	item, err := api.svc.Get(ctx.Request().Context(), contentRef(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, item)
}

func (api *moderationApi) approve(ctx echo.Context) error {
	var data DecisionRequest
	if err := bind(ctx, &data, nil, nil); err != nil {
		return err
	}
	res, err := api.svc.Approve(ctx.Request().Context(), contentRef(ctx), data.Note)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *moderationApi) reject(ctx echo.Context) error {
	var data DecisionRequest
	if err := bind(ctx, &data, nil, nil); err != nil {
		return err
	}
	res, err := api.svc.Reject(ctx.Request().Context(), contentRef(ctx), data.Note)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *moderationApi) destroy(ctx echo.Context) error {
	confirm, err := queryBool(ctx, "confirm")
	if err != nil {
		return err
	}
	res, err := api.svc.Delete(ctx.Request().Context(), contentRef(ctx), confirm != nil && *confirm)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
