package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/speakhq/speakadmin/core"
)

const (
	contextTokenKey = "userToken"
	tokenAudience   = "Speak Admin"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

func (c Claims) Session() core.Session {
	return core.Session{UserID: c.Subject, Email: c.Email, Name: c.Name, Role: c.Role}
}

// newJWTConfig returns the JWT auth middleware config. lookup overrides where the token is read from.
func newJWTConfig(conf *core.Config, lookup ...string) middleware.JWTConfig {
	cfg := middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
	if len(lookup) > 0 {
		cfg.TokenLookup = lookup[0]
	}
	return cfg
}

func GetSessionClaims(conf *core.Config, session core.Session) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   session.UserID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email: session.Email,
		Name:  session.Name,
		Role:  session.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the session.
func GenerateToken(conf *core.Config, session core.Session) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), GetSessionClaims(conf, session))
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextSession returns the session of the authenticated caller, or a zero session.
func getContextSession(ctx echo.Context) core.Session {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return core.Session{}
	}
	return claims.Session()
}
