package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/5w1tchy/library-api/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(bookRules, models.BookForManipulation{})
	return v
}

func bookRules(sl validator.StructLevel) {
	b := sl.Current().Interface().(models.BookForManipulation)
	if b.Title != "" && b.Description == b.Title {
		sl.ReportError(b.Description, "description", "Description", "nefield", "title")
	}
}

var messages = map[string]string{
	"required": "The field '%s' is required.",
	"max":      "The field '%s' must be no longer than %s characters.",
	"gtfield":  "The field '%s' must be after '%s'.",
	"nefield":  "The field '%s' must be different from '%s'.",
}

// Errors maps JSON field paths to messages.
type Errors map[string]string

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for k, v := range e {
		parts = append(parts, k+": "+v)
	}
	return strings.Join(parts, "; ")
}

// Struct validates s and returns Errors, or nil when s is valid.
func Struct(s any) Errors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{"": err.Error()}
	}
	out := make(Errors, len(verrs))
	for _, e := range verrs {
		out[fieldPath(e)] = message(e)
	}
	return out
}

// fieldPath keeps the JSON part of the namespace, dropping the root struct and any
// embedded struct names ("AuthorForCreationWithDateOfDeath.AuthorForCreation.firstName").
func fieldPath(e validator.FieldError) string {
	parts := strings.Split(e.Namespace(), ".")
	for len(parts) > 1 && parts[0] != "" && unicode.IsUpper(rune(parts[0][0])) {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

func message(e validator.FieldError) string {
	msg, ok := messages[e.Tag()]
	if !ok {
		return fmt.Sprintf("The field '%s' is invalid: %s", e.Field(), e.Tag())
	}
	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, e.Field(), e.Param())
	}
	return fmt.Sprintf(msg, e.Field())
}
