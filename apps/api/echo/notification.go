package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/speakhq/speakadmin/core/notification"
)

type MarkAllReadRequest struct {
	IDs []string `json:"ids"`
}

type notificationApi struct {
	feed *notification.Feed
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := notificationApi{feed: deps.Feed}

	ng := g.Group("/notifications", jwt, memberMiddleware())
	ng.GET("", api.snapshot)
	ng.POST("/read-all", api.markAllRead)
	ng.POST("/:id/read", api.markRead)
	ng.POST("/:id/open", api.open)
}

func (api *notificationApi) snapshot(ctx echo.Context) error {
	snap, err := api.feed.Snapshot(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, snap)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	res, err := api.feed.MarkRead(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	var data MarkAllReadRequest
	if err := bind(ctx, &data, nil, nil); err != nil {
		return err
	}
	res, err := api.feed.MarkAllRead(ctx.Request().Context(), data.IDs)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *notificationApi) open(ctx echo.Context) error {
	link, err := api.feed.Open(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "link": link})
}
