package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/category"
)

type categoryApi struct {
	svc        *category.Service
	translator ut.Translator
}

func registerCategoryAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := categoryApi{svc: deps.CategorySvc, translator: deps.Translator}

	cg := g.Group("/categories", jwt)
	cg.GET("", api.query, memberMiddleware())
	cg.POST("", api.create, adminMiddleware())
	cg.PUT("/:id", api.update, adminMiddleware())
	cg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *categoryApi) query(ctx echo.Context) error {
	list, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *categoryApi) create(ctx echo.Context) error {
	var data category.NewCategory
	if err := bind(ctx, &data, nil, nil); err != nil {
		return err
	}
	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return core.TranslateValidationErrors(err, api.translator)
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *categoryApi) update(ctx echo.Context) error {
	var data category.Category
	if err := bind(ctx, &data, nil, nil); err != nil {
		return err
	}
	c, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return core.TranslateValidationErrors(err, api.translator)
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *categoryApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, core.Result{Success: true, Message: "Category deleted."})
}
