// Package validator checks configuration structs with go-playground/validator
// and turns failures into messages keyed by the yaml field path.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.Split(f.Tag.Get("yaml"), ",")[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

// errorMessages maps validation tags to messages. Verbs receive the field
// path, the rejected value and the tag parameter, in that order.
var errorMessages = map[string]string{
	"required": "%[1]s is required",
	"oneof":    "unsupported %[1]s %[2]q (one of: %[3]s)",
	"url":      "%[1]s must be a URL, got %[2]q",
	"min":      "%[1]s must have at least %[3]s entries",
	"gte":      "%[1]s must be greater than or equal to %[3]s",
}

// FieldErrors maps a field path such as search.engine to a message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fe[k])
	}
	return strings.Join(msgs, "; ")
}

// parseMessage builds the message for one failed rule.
func parseMessage(path string, e validator.FieldError) string {
	if msg, ok := errorMessages[e.Tag()]; ok {
		return fmt.Sprintf(msg, path, fmt.Sprint(e.Value()), strings.ReplaceAll(e.Param(), " ", ", "))
	}
	return fmt.Sprintf("%s is invalid: %s", path, e.Tag())
}

// ValidateStruct validates s and returns nil or the failures keyed by
// prefix plus the yaml path of each field.
func ValidateStruct(s any, prefix string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fe := make(FieldErrors, len(validationErrs))
	for _, e := range validationErrs {
		path := e.Namespace()
		// drop the struct type name
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		if prefix != "" {
			path = prefix + "." + path
		}
		fe[path] = parseMessage(path, e)
	}
	return fe
}
