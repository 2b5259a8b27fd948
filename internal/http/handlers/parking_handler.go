package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"smartpark/internal/http/middleware"
	"smartpark/internal/ledger"
	"smartpark/internal/models"
)

// LedgerService is the slice of the session ledger consumed by the parking
// handlers.
type LedgerService interface {
	Enter(ctx context.Context, plateID string) (*models.Session, error)
	Exit(ctx context.Context, plateID, sessionID string) (*models.Session, error)
	CurrentOpenSession(ctx context.Context, plateID string) (*models.Session, error)
	History(ctx context.Context, plateID string) ([]models.Session, error)
	Reconcile(ctx context.Context, plateID string) ([]string, error)
}

// ParkingHandler exposes the enter/exit-and-pay flow. The plate always
// comes from the verified identity on the request context, never from the
// request body.
type ParkingHandler struct {
	svc    LedgerService
	logger *zap.Logger
}

// NewParkingHandler builds handler set.
func NewParkingHandler(svc LedgerService, logger *zap.Logger) *ParkingHandler {
	return &ParkingHandler{svc: svc, logger: logger}
}

func identityPlate(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing identity")
		return "", false
	}
	return claims.Plate, true
}

// HandleEnter handles POST /parking/enter.
func (h *ParkingHandler) HandleEnter(w http.ResponseWriter, r *http.Request) {
	plateID, ok := identityPlate(w, r)
	if !ok {
		return
	}

	session, err := h.svc.Enter(r.Context(), plateID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrSessionAlreadyOpen):
			writeError(w, http.StatusConflict, "a parking session is already in progress")
		case writeStoreError(w, err):
		default:
			h.logger.Error("enter failed", zap.String("plate", plateID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to enter")
		}
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// HandleExit handles POST /parking/exit.
func (h *ParkingHandler) HandleExit(w http.ResponseWriter, r *http.Request) {
	plateID, ok := identityPlate(w, r)
	if !ok {
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
	}
	if r.Body != nil {
		// Body is optional; the open session is recomputed server-side.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	session, err := h.svc.Exit(r.Context(), plateID, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNoOpenSession):
			writeError(w, http.StatusConflict, "no open parking session")
		case writeStoreError(w, err):
		default:
			h.logger.Error("exit failed", zap.String("plate", plateID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to exit")
		}
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// HandleCurrentSession handles GET /parking/session.
func (h *ParkingHandler) HandleCurrentSession(w http.ResponseWriter, r *http.Request) {
	plateID, ok := identityPlate(w, r)
	if !ok {
		return
	}

	session, err := h.svc.CurrentOpenSession(r.Context(), plateID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNoOpenSession):
			writeError(w, http.StatusNotFound, "no open parking session")
		case writeStoreError(w, err):
		default:
			writeError(w, http.StatusInternalServerError, "failed to fetch session")
		}
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// HandleHistory handles GET /parking/history.
func (h *ParkingHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	plateID, ok := identityPlate(w, r)
	if !ok {
		return
	}

	sessions, err := h.svc.History(r.Context(), plateID)
	if err != nil {
		if !writeStoreError(w, err) {
			writeError(w, http.StatusInternalServerError, "failed to fetch history")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// HandleReconcile handles POST /parking/reconcile.
func (h *ParkingHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	plateID, ok := identityPlate(w, r)
	if !ok {
		return
	}

	marked, err := h.svc.Reconcile(r.Context(), plateID)
	if err != nil {
		if !writeStoreError(w, err) {
			h.logger.Error("reconcile failed", zap.String("plate", plateID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to reconcile")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"invalidated": marked})
}
