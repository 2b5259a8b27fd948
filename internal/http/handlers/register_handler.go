package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"smartpark/internal/registry"
)

// RegistryService is the slice of the registry consumed by the account
// handlers.
type RegistryService interface {
	Register(ctx context.Context, in registry.RegisterInput) (*registry.Identity, error)
	Login(ctx context.Context, email, plateCandidate string) (*registry.Identity, error)
}

// NewRegisterHandler handles POST /accounts/register.
func NewRegisterHandler(svc RegistryService) http.HandlerFunc {
	type request struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Email string `json:"email"`
		Plate string `json:"plate"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		identity, err := svc.Register(r.Context(), registry.RegisterInput{
			Name:  req.Name,
			Phone: req.Phone,
			Email: req.Email,
			Plate: req.Plate,
		})
		if err != nil {
			switch {
			case writeValidationError(w, err):
			case errors.Is(err, registry.ErrDuplicatePlateOtherAccount):
				writeError(w, http.StatusConflict, "license plate is already registered under another account")
			case errors.Is(err, registry.ErrDuplicatePlateSameAccount):
				writeError(w, http.StatusConflict, "license plate is already registered under this account")
			case writeStoreError(w, err):
			default:
				writeError(w, http.StatusInternalServerError, "failed to register")
			}
			return
		}

		writeJSON(w, http.StatusCreated, identity)
	}
}
