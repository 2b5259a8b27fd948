package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"smartpark/internal/registry"
)

// TokenIssuer issues a session token for a verified identity.
type TokenIssuer interface {
	Generate(email, plate string) (string, error)
}

// NewLoginHandler handles POST /auth/login.
func NewLoginHandler(svc RegistryService, tokens TokenIssuer, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		Email string `json:"email"`
		Plate string `json:"plate"`
	}
	type response struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
		Email     string `json:"email"`
		Plate     string `json:"plate"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		identity, err := svc.Login(r.Context(), req.Email, req.Plate)
		if err != nil {
			switch {
			case writeValidationError(w, err):
			case errors.Is(err, registry.ErrAccountNotFound):
				writeError(w, http.StatusNotFound, "this email is not registered")
			case errors.Is(err, registry.ErrPlateMismatch):
				writeError(w, http.StatusUnauthorized, "license plate does not match our records")
			case writeStoreError(w, err):
			default:
				writeError(w, http.StatusInternalServerError, "failed to login")
			}
			return
		}

		tokenStr, err := tokens.Generate(identity.Email, identity.Plate)
		if err != nil {
			logger.Error("failed to issue token", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to login")
			return
		}

		writeJSON(w, http.StatusOK, response{
			Token:     tokenStr,
			TokenType: "Bearer",
			Email:     identity.Email,
			Plate:     identity.Plate,
		})
	}
}
