// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance.
// Domain-specific validation rules can be registered using RegisterValidation.
func New() *Validator {
	return &Validator{
		v: validator.New(),
	}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// telefonPattern accepts loosely formatted phone input: digits with the
// separators people actually type. Normalization to E.164 happens later in
// the service layer; this only rejects obvious garbage.
var telefonPattern = regexp.MustCompile(`^\+?[0-9()\/\- .]{4,39}$`)

// IsTelefon is the validation func behind the "telefon" tag.
func IsTelefon(fl validator.FieldLevel) bool {
	return telefonPattern.MatchString(fl.Field().String())
}

// RegisterBindingValidations installs the custom rules on Gin's binding
// engine so request DTOs can use them in binding tags. Call once at startup.
func RegisterBindingValidations() error {
	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	return engine.RegisterValidation("telefon", IsTelefon)
}
