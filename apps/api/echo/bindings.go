package echoapi

import (
	"strconv"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/speakhq/speakadmin/core"
)

// bind decodes the request body into dst and, when validate is set, validates it.
func bind(ctx echo.Context, dst interface{}, validate *validator.Validate, translator ut.Translator) error {
	if err := ctx.Bind(dst); err != nil {
		return core.NewInvalidArgument("Invalid request body.")
	}
	if validate == nil {
		return nil
	}
	if err := validate.Struct(dst); err != nil {
		return core.TranslateValidationErrors(err, translator)
	}
	return nil
}

func queryString(ctx echo.Context, name string) string {
	return core.CleanString(ctx.QueryParam(name))
}

// queryBool parses an optional boolean query parameter.
func queryBool(ctx echo.Context, name string) (*bool, error) {
	raw := queryString(ctx, name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, core.NewInvalidArgument("Invalid %s parameter %q.", name, raw)
	}
	return &b, nil
}

func queryInt(ctx echo.Context, name string) (int, error) {
	raw := queryString(ctx, name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewInvalidArgument("Invalid %s parameter %q.", name, raw)
	}
	return n, nil
}

// queryTime parses an RFC 3339 timestamp query parameter.
func queryTime(ctx echo.Context, name string) (time.Time, error) {
	raw := queryString(ctx, name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, core.NewInvalidArgument("Invalid %s parameter %q.", name, raw)
	}
	return t.UTC(), nil
}
