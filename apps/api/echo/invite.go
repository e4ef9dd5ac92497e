package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/invite"
	"github.com/speakhq/speakadmin/core/user"
)

// inviteResponse reports a partial success (record created, mail failed) as success.
type inviteResponse struct {
	Success bool `json:"success"`
	invite.Result
}

type inviteApi struct {
	svc *invite.Service
}

func registerInviteAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := inviteApi{svc: deps.InviteSvc}

	ig := g.Group("/invites", jwt, adminMiddleware())
	ig.POST("/members", api.inviteMember)
	ig.POST("/counsellors", api.inviteCounsellor)
	ig.POST("/resend", api.resend)
}

func (api *inviteApi) inviteMember(ctx echo.Context) error {
	var data invite.NewMemberInvite
	if err := bind(ctx, &data, nil, nil); err != nil {
		return err
	}
	data.Clean()
	if user.RolePriority(data.Role) > user.RolePriority(getContextSession(ctx).Role) {
		return core.NewForbidden("You cannot grant a role higher than yours.")
	}
	res, err := api.svc.InviteAdminOrUser(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, inviteResponse{Success: res.RecordCreated, Result: res})
}

func (api *inviteApi) inviteCounsellor(ctx echo.Context) error {
	var data invite.NewCounsellorInvite
	if err := bind(ctx, &data, nil, nil); err != nil {
		return err
	}
	res, err := api.svc.InviteCounselor(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, inviteResponse{Success: res.RecordCreated, Result: res})
}

func (api *inviteApi) resend(ctx echo.Context) error {
	var data invite.ResendRequest
	if err := bind(ctx, &data, nil, nil); err != nil {
		return err
	}
	data.Clean()
	kind, err := invite.ParseKind(data.Type)
	if err != nil {
		return err
	}
	res, err := api.svc.ResendInvitation(ctx.Request().Context(), data.Email, kind)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, inviteResponse{Success: res.MailSent, Result: res})
}
