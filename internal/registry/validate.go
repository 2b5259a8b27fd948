package registry

import (
	"fmt"
	"regexp"
	"strings"

	"smartpark/internal/plate"
)

var (
	nameRe  = regexp.MustCompile(`^[A-Za-z\s]+$`)
	phoneRe = regexp.MustCompile(`^\d{11}$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// FieldError tags a validation failure with the offending field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every failed field of one request. Validation
// never touches the store.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// RegisterInput is the raw registration form.
type RegisterInput struct {
	Name  string
	Phone string
	Email string
	Plate string
}

// validateRegistration checks every field and reports all failures together
// instead of stopping at the first.
func validateRegistration(in RegisterInput) error {
	var verr ValidationError

	switch {
	case strings.TrimSpace(in.Name) == "":
		verr.add("name", "name is required")
	case !nameRe.MatchString(in.Name):
		verr.add("name", "name must contain only letters and spaces")
	}

	switch {
	case in.Phone == "":
		verr.add("phone", "phone is required")
	case !phoneRe.MatchString(in.Phone):
		verr.add("phone", "phone must contain exactly 11 digits")
	}

	validateEmail(&verr, in.Email)
	validatePlate(&verr, in.Plate)

	return verr.orNil()
}

func validateLogin(email, rawPlate string) error {
	var verr ValidationError
	validateEmail(&verr, email)
	validatePlate(&verr, rawPlate)
	return verr.orNil()
}

func validateEmail(verr *ValidationError, email string) {
	switch {
	case email == "":
		verr.add("email", "email is required")
	case !emailRe.MatchString(email):
		verr.add("email", "email address is not valid")
	}
}

func validatePlate(verr *ValidationError, rawPlate string) {
	if rawPlate == "" {
		verr.add("plate", "license plate is required")
		return
	}
	if !plate.Valid(plate.Normalize(rawPlate)) {
		verr.add("plate", "license plate must be 5 to 12 letters and digits")
	}
}
