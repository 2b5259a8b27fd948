package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"smartpark/internal/gate"
	"smartpark/internal/ledger"
	"smartpark/internal/models"
)

// GateService is the slice of the gate consumed by the detector callbacks.
type GateService interface {
	PlateSeen(ctx context.Context, d gate.Detection) (*models.Session, error)
}

// UnregisteredReader lists logged detections of unknown plates.
type UnregisteredReader interface {
	List(ctx context.Context, plateID string) ([]models.UnregisteredEntry, error)
}

// GateHandler holds endpoints invoked by the ANPR detector.
type GateHandler struct {
	svc    GateService
	unreg  UnregisteredReader
	logger *zap.Logger
}

// NewGateHandler builds handler set.
func NewGateHandler(svc GateService, unreg UnregisteredReader, logger *zap.Logger) *GateHandler {
	return &GateHandler{svc: svc, unreg: unreg, logger: logger}
}

type plateSeenRequest struct {
	Plate      string  `json:"plate"`
	Direction  string  `json:"direction"`
	Confidence float64 `json:"confidence"`
	Image      string  `json:"image"`
}

// HandlePlateSeen handles POST /internal/anpr/plate-seen.
func (h *GateHandler) HandlePlateSeen(w http.ResponseWriter, r *http.Request) {
	var req plateSeenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Plate == "" {
		writeError(w, http.StatusBadRequest, "plate is required")
		return
	}

	session, err := h.svc.PlateSeen(r.Context(), gate.Detection{
		Plate:      req.Plate,
		Direction:  req.Direction,
		Confidence: req.Confidence,
		Image:      req.Image,
	})
	if err != nil {
		switch {
		case errors.Is(err, gate.ErrUnknownDirection):
			writeError(w, http.StatusBadRequest, "direction must be entry or exit")
		case errors.Is(err, gate.ErrUnregisteredPlate):
			writeError(w, http.StatusForbidden, "plate is not registered")
		case errors.Is(err, ledger.ErrSessionAlreadyOpen):
			writeError(w, http.StatusConflict, "a parking session is already in progress")
		case errors.Is(err, ledger.ErrNoOpenSession):
			writeError(w, http.StatusConflict, "no open parking session")
		case errors.Is(err, ledger.ErrInvalidPlate):
			writeError(w, http.StatusBadRequest, "plate is not a valid license plate")
		case writeStoreError(w, err):
		default:
			h.logger.Error("plate-seen failed", zap.String("plate", req.Plate), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to process detection")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, session)
}

// HandleUnregistered handles GET /internal/anpr/unregistered?plate={plate}.
func (h *GateHandler) HandleUnregistered(w http.ResponseWriter, r *http.Request) {
	plateID := r.URL.Query().Get("plate")
	if plateID == "" {
		writeError(w, http.StatusBadRequest, "plate is required")
		return
	}

	entries, err := h.unreg.List(r.Context(), plateID)
	if err != nil {
		if !writeStoreError(w, err) {
			writeError(w, http.StatusInternalServerError, "failed to fetch entries")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
