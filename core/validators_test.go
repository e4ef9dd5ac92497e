package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordViolation(t *testing.T) {
	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 123!", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "no upper", pwd: "abcd1234!", want: pwdComplexityTag},
		{name: "no special", pwd: "Abcd12345", want: pwdComplexityTag},
		{name: "similar to name", pwd: "Jane.doe1@", attrs: []string{"Jane Doe"}, want: pwdAttrSimTag},
		{name: "common", pwd: "P@ssw0rd", want: pwdNoCommonTag},
		{name: "valid", pwd: "Hard2Gu3ss!pw", attrs: []string{"jane@speak.test", ""}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PasswordViolation(tt.pwd, tt.attrs...))
		})
	}
}

func TestPasswordViolationText(t *testing.T) {
	assert.Equal(t, pwdMinLenText, PasswordViolationText(pwdMinLenTag))
	assert.Equal(t, pwdNoCommonText, PasswordViolationText(pwdNoCommonTag))
	assert.Empty(t, PasswordViolationText("lol"))
}

func TestTranslateValidationErrors(t *testing.T) {
	validate, translator := NewValidator()

	type payload struct {
		Name  string `json:"name" validate:"required"`
		Color string `json:"color" validate:"omitempty,hexcolor_"`
	}

	tests := []struct {
		name       string
		data       payload
		wantFields map[string]string
	}{
		{name: "valid", data: payload{Name: "Anxiety", Color: "#6B73FF"}},
		{name: "missing name", data: payload{Color: "#fff"}, wantFields: map[string]string{"name": requiredText}},
		{
			name:       "invalid color",
			data:       payload{Name: "Stress", Color: "blue"},
			wantFields: map[string]string{"color": hexColorText},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.data)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			require.IsType(t, validator.ValidationErrors{}, err)

			var verr *ValidationError
			require.ErrorAs(t, TranslateValidationErrors(err, translator), &verr)
			got := make(map[string]string, len(verr.Fields))
			for _, f := range verr.Fields {
				got[f.Field] = f.Error
			}
			assert.Equal(t, tt.wantFields, got)
			assert.Equal(t, KindInvalidArgument, KindOf(verr))
		})
	}
}
