package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/user"
	"github.com/speakhq/speakadmin/services/identity"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	SignupRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token   string       `json:"token"`
		Session core.Session `json:"user"`
	}

	SignupResponse struct {
		core.Result
		Token string `json:"token,omitempty"`
	}
)

func (lr *LoginRequest) Clean() {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
}

func (sr *SignupRequest) Clean() {
	sr.Email = core.CleanString(sr.Email, true /* lower */)
}

type authApi struct {
	conf       *core.Config
	provider   identity.Provider
	onboarding *identity.Onboarding
	users      *user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := authApi{
		conf:       deps.Conf,
		provider:   deps.Identity,
		onboarding: deps.Onboarding,
		users:      deps.UserSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)
	ag.POST("/signup", api.signup)
	ag.POST("/set-initial-password", api.setInitialPassword)

	// authed endpoints
	ag.GET("/me", api.me, jwt)
}

func (api *authApi) respondWithToken(ctx echo.Context, code int, session core.Session) error {
	token, err := GenerateToken(api.conf, session)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(code, LoginResponse{Token: token, Session: session})
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := bind(ctx, &data, nil, nil); err != nil {
		return err
	}
	data.Clean()
	if err := api.validate.Struct(data); err != nil {
		return core.TranslateValidationErrors(err, api.translator)
	}

	session, err := api.provider.SignIn(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case identity.ErrAuthenticationFailed:
			return core.NewInvalidArgument("Invalid email or password.")
		case identity.ErrAccountDisabled:
			return core.NewForbidden("This account has been disabled.")
		}
		return errors.Wrap(err, "authenticating")
	}
	return api.respondWithToken(ctx, http.StatusOK, session)
}

// signup only registers the designated superadmin and grants it the role.
func (api *authApi) signup(ctx echo.Context) error {
	var data SignupRequest
	if err := bind(ctx, &data, nil, nil); err != nil {
		return err
	}
	data.Clean()
	if err := api.validate.Struct(data); err != nil {
		return core.TranslateValidationErrors(err, api.translator)
	}
	if !api.conf.IsSuperadminEmail(data.Email) {
		return core.NewForbidden("Unauthorized: Email does not match designated superadmin email.")
	}
	if tag := core.PasswordViolation(data.Password, data.Email); tag != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: core.PasswordViolationText(tag)})
	}

	reqCtx := ctx.Request().Context()
	session, err := api.provider.CreateAccount(reqCtx, data.Email, data.Password)
	if err != nil {
		return err
	}
	res, err := api.users.BootstrapSuperadmin(reqCtx, session.UserID, session.Email)
	if err != nil {
		return err
	}
	session.Role = core.RoleSuperadmin

	token, err := GenerateToken(api.conf, session)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, SignupResponse{Result: res, Token: token})
}

func (api *authApi) setInitialPassword(ctx echo.Context) error {
	var data identity.InitialPassword
	if err := bind(ctx, &data, nil, nil); err != nil {
		return err
	}
	session, err := api.onboarding.SetInitialPassword(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return api.respondWithToken(ctx, http.StatusCreated, session)
}

func (api *authApi) me(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, getContextSession(ctx))
}
