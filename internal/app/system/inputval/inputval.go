// Package inputval validates request structs with go-playground/validator and
// reports failures keyed by the field's JSON name.
package inputval

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	notBlankTag = "notblank"
	objectIDTag = "objectid"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	eng := en.New()
	uni := ut.New(eng, eng)
	translator, _ = uni.GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(objectIDTag, objectID)

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, objectIDTag} {
		_ = validate.RegisterTranslation(tag, translator, noop, translateCustom)
	}
}

// FieldError is one failed rule.
type FieldError struct {
	Field   string // JSON name of the field
	Tag     string // rule that failed
	Message string // English description
}

func (e FieldError) Error() string { return e.Message }

// Struct validates v. It returns nil when v passes, the failures in field
// declaration order otherwise. A non-struct argument is a programming error
// and is returned as a plain error.
func Struct(v any) ([]FieldError, error) {
	err := validate.Struct(v)
	if err == nil {
		return nil, nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil, err
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fe.Translate(translator),
		})
	}
	return out, nil
}

// IsObjectID reports whether s is a 24-character hex ObjectID.
func IsObjectID(s string) bool {
	return primitive.IsValidObjectID(strings.TrimSpace(s))
}

func notBlank(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}

func objectID(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return IsObjectID(s)
	}
	return false
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case objectIDTag:
		return fe.Field() + " must be a 24-character hex identifier"
	default:
		return fe.Field() + " is invalid"
	}
}
