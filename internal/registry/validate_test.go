package registry

import (
	"errors"
	"testing"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	out := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func validInput() RegisterInput {
	return RegisterInput{
		Name:  "Tom Zhang",
		Phone: "01234567890",
		Email: "tom@x.com",
		Plate: "AB12CDE",
	}
}

func TestValidateRegistrationOK(t *testing.T) {
	if err := validateRegistration(validInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Every failed field must be reported together, not just the first.
func TestValidateRegistrationAggregatesFailures(t *testing.T) {
	err := validateRegistration(RegisterInput{
		Name:  "Tom42",
		Phone: "123",
		Email: "not-an-email",
		Plate: "AB",
	})
	fields := fieldsOf(t, err)
	for _, want := range []string{"name", "phone", "email", "plate"} {
		if _, ok := fields[want]; !ok {
			t.Errorf("missing field error for %q in %v", want, fields)
		}
	}
	if len(fields) != 4 {
		t.Errorf("got %d field errors, want 4", len(fields))
	}
}

func TestValidateRegistrationSingleField(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RegisterInput)
		field  string
	}{
		{"empty name", func(in *RegisterInput) { in.Name = "" }, "name"},
		{"digits in name", func(in *RegisterInput) { in.Name = "Tom 2" }, "name"},
		{"empty phone", func(in *RegisterInput) { in.Phone = "" }, "phone"},
		{"short phone", func(in *RegisterInput) { in.Phone = "0123456789" }, "phone"},
		{"long phone", func(in *RegisterInput) { in.Phone = "012345678901" }, "phone"},
		{"alpha phone", func(in *RegisterInput) { in.Phone = "0123456789a" }, "phone"},
		{"empty email", func(in *RegisterInput) { in.Email = "" }, "email"},
		{"no at sign", func(in *RegisterInput) { in.Email = "tomx.com" }, "email"},
		{"no tld", func(in *RegisterInput) { in.Email = "tom@xcom" }, "email"},
		{"empty plate", func(in *RegisterInput) { in.Plate = "" }, "plate"},
		{"short plate", func(in *RegisterInput) { in.Plate = "AB12" }, "plate"},
		{"long plate", func(in *RegisterInput) { in.Plate = "AB12CDE123456" }, "plate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			fields := fieldsOf(t, validateRegistration(in))
			if len(fields) != 1 {
				t.Fatalf("got %d field errors, want 1: %v", len(fields), fields)
			}
			if _, ok := fields[tc.field]; !ok {
				t.Errorf("expected error on %q, got %v", tc.field, fields)
			}
		})
	}
}

// Plate constraints apply after normalization: separators and case are
// stripped before the length check.
func TestValidateRegistrationNormalizesPlate(t *testing.T) {
	in := validInput()
	in.Plate = "ab12 cde"
	if err := validateRegistration(in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in.Plate = "a-b-1"
	fields := fieldsOf(t, validateRegistration(in))
	if _, ok := fields["plate"]; !ok {
		t.Errorf("expected plate error, got %v", fields)
	}
}
