// Package forms validates the user-submitted forms of the blog: comments,
// registration and login. Each Clean function is pure: it takes the raw form,
// returns the normalised form and an ordered list of field errors.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind classifies a validation failure so callers can react without parsing
// messages.
type Kind string

const (
	KindRequired     Kind = "Required"
	KindEmptyContent Kind = "EmptyContent"
	KindTooLong      Kind = "TooLong"
	KindInvalid      Kind = "Invalid"
	KindMismatch     Kind = "Mismatch"
	KindTaken        Kind = "Taken"
	KindWeakPassword Kind = "WeakPassword"
	KindAuth         Kind = "AuthFailed"
)

// NonField is the Field value of errors that belong to the form as a whole.
const NonField = ""

type FieldError struct {
	Field   string
	Kind    Kind
	Message string
}

// Errors is an ordered list of field errors. A nil or empty list means the
// form is valid.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		if fe.Field == NonField {
			parts = append(parts, fe.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(parts, "; ")
}

func (e Errors) OK() bool {
	return len(e) == 0
}

// Add appends an error; it is meant for checks that need the database, such
// as a username already being taken.
func (e *Errors) Add(field string, kind Kind, message string) {
	*e = append(*e, FieldError{Field: field, Kind: kind, Message: message})
}

// Field returns the messages attached to one field, in order.
func (e Errors) Field(name string) []string {
	var msgs []string
	for _, fe := range e {
		if fe.Field == name {
			msgs = append(msgs, fe.Message)
		}
	}
	return msgs
}

func (e Errors) NonFieldErrors() []string {
	return e.Field(NonField)
}

// Kinds returns the kinds recorded for a field.
func (e Errors) Kinds(field string) []Kind {
	var kinds []Kind
	for _, fe := range e {
		if fe.Field == field {
			kinds = append(kinds, fe.Kind)
		}
	}
	return kinds
}

func (e Errors) Has(field string, kind Kind) bool {
	for _, fe := range e {
		if fe.Field == field && fe.Kind == kind {
			return true
		}
	}
	return false
}

var validate = newValidator()

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their form names so errors line up with the inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// messages overrides the default message for a field and validator tag,
// keyed as "field.tag".
type messages map[string]FieldError

// check runs the struct rules and converts the failures into Errors, in
// struct field order.
func check(form interface{}, overrides messages) Errors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{{Field: NonField, Kind: KindInvalid, Message: err.Error()}}
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		if o, ok := overrides[fe.Field()+"."+fe.Tag()]; ok {
			o.Field = fe.Field()
			out = append(out, o)
			continue
		}
		out = append(out, defaultError(fe))
	}
	return out
}

func defaultError(fe validator.FieldError) FieldError {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return FieldError{Field: field, Kind: KindRequired, Message: "This field is required."}
	case "max":
		return FieldError{Field: field, Kind: KindTooLong,
			Message: fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())}
	case "email":
		return FieldError{Field: field, Kind: KindInvalid, Message: "Enter a valid email address."}
	case "username":
		return FieldError{Field: field, Kind: KindInvalid,
			Message: "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."}
	default:
		return FieldError{Field: field, Kind: KindInvalid, Message: "Enter a valid value."}
	}
}
