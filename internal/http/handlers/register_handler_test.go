package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smartpark/internal/registry"
)

type fakeRegistry struct {
	registerFn func(ctx context.Context, in registry.RegisterInput) (*registry.Identity, error)
	loginFn    func(ctx context.Context, email, plateCandidate string) (*registry.Identity, error)
}

func (f *fakeRegistry) Register(ctx context.Context, in registry.RegisterInput) (*registry.Identity, error) {
	return f.registerFn(ctx, in)
}

func (f *fakeRegistry) Login(ctx context.Context, email, plateCandidate string) (*registry.Identity, error) {
	return f.loginFn(ctx, email, plateCandidate)
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRegisterHandlerCreated(t *testing.T) {
	svc := &fakeRegistry{
		registerFn: func(ctx context.Context, in registry.RegisterInput) (*registry.Identity, error) {
			if in.Name != "Tom Zhang" || in.Plate != "ab12 cde" {
				t.Errorf("input = %+v", in)
			}
			return &registry.Identity{Email: in.Email, Plate: "AB12CDE"}, nil
		},
	}
	handler := NewRegisterHandler(svc)

	rec := postJSON(t, handler, "/accounts/register",
		`{"name":"Tom Zhang","phone":"01234567890","email":"tom@x.com","plate":"ab12 cde"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var identity registry.Identity
	if err := json.Unmarshal(rec.Body.Bytes(), &identity); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if identity.Plate != "AB12CDE" {
		t.Errorf("plate = %q", identity.Plate)
	}
}

func TestRegisterHandlerValidationFields(t *testing.T) {
	svc := &fakeRegistry{
		registerFn: func(ctx context.Context, in registry.RegisterInput) (*registry.Identity, error) {
			verr := &registry.ValidationError{Fields: []registry.FieldError{
				{Field: "email", Message: "email is invalid"},
				{Field: "plate", Message: "plate must be 5 to 12 letters and digits"},
			}}
			return nil, verr
		},
	}
	rec := postJSON(t, NewRegisterHandler(svc), "/accounts/register", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Fields []registry.FieldError `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Fields) != 2 || body.Fields[0].Field != "email" {
		t.Errorf("fields = %+v", body.Fields)
	}
}

func TestRegisterHandlerConflicts(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"other account", registry.ErrDuplicatePlateOtherAccount},
		{"same account", registry.ErrDuplicatePlateSameAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRegistry{
				registerFn: func(ctx context.Context, in registry.RegisterInput) (*registry.Identity, error) {
					return nil, tt.err
				},
			}
			rec := postJSON(t, NewRegisterHandler(svc), "/accounts/register",
				`{"name":"Tom Zhang","phone":"01234567890","email":"tom@x.com","plate":"AB12CDE"}`)
			if rec.Code != http.StatusConflict {
				t.Errorf("status = %d, want 409", rec.Code)
			}
		})
	}
}

func TestRegisterHandlerBadJSON(t *testing.T) {
	svc := &fakeRegistry{
		registerFn: func(ctx context.Context, in registry.RegisterInput) (*registry.Identity, error) {
			t.Fatal("service called with malformed body")
			return nil, nil
		},
	}
	rec := postJSON(t, NewRegisterHandler(svc), "/accounts/register", `{broken`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
