package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/hlog"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json field names instead of Go struct field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError describes one rejected request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// normalizer is implemented by requests that trim or fold input before validation
type normalizer interface {
	normalize()
}

// decodeRequest decodes the JSON body into v and runs its validate tags
func decodeRequest(r *http.Request, v any) error {
	if err := decodeJSON(r, v); err != nil {
		return err
	}
	if n, ok := v.(normalizer); ok {
		n.normalize()
	}
	return validate.Struct(v)
}

// rejectRequest answers a decode or validation failure with 400
func rejectRequest(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fail(w, r, err, msg)
		return
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	hlog.FromRequest(r).Debug().Err(err).Msg(msg)
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "Request validation failed",
		"details": details,
	})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	default:
		return "Invalid value"
	}
}
