// Package validate checks request DTOs with struct tags and reports failures
// keyed by their JSON field names.
package validate

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/educare/track_backend/pkg/studentid"
)

var ErrInvalid = errors.New("validation failed")

// Error carries one message per offending field.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Error) Is(target error) bool { return target == ErrInvalid }

var (
	v     *validator.Validate
	trans ut.Translator
)

func init() {
	v = validator.New()
	english := en.New()
	trans, _ = ut.New(english, english).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("edu_code", func(fl validator.FieldLevel) bool {
		return studentid.Valid(fl.Field().String())
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := ParseClock(fl.Field().String())
		return err == nil
	})
	custom(requiredTag, "this field is required", true)
	custom("edu_code", "must look like EDU-YYYY-XXXX-XXXX", false)
	custom("hhmm", ErrInvalidClock.Error(), false)
}

const requiredTag = "required"

func custom(tag, text string, override bool) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s. It returns nil or an *Error keyed by field name.
func Struct(s any) error {
	return check(s, validator.FieldError.Field)
}

// StructPaths is Struct for nested settings trees: failures are keyed by
// their full path so equally named fields in different sections stay apart.
func StructPaths(s any) error {
	return check(s, validator.FieldError.Namespace)
}

func check(s any, key func(validator.FieldError) string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[key(fe)] = fe.Translate(trans)
	}
	return out
}
