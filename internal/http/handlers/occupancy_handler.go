package handlers

import (
	"context"
	"net/http"

	"smartpark/internal/occupancy"
)

// OccupancyService is the slice of the occupancy reader consumed by the lot
// handler.
type OccupancyService interface {
	Lot(ctx context.Context, lotID string) (*occupancy.Summary, error)
}

// NewLotSpacesHandler handles GET /lots/spaces?lot={lotId}.
func NewLotSpacesHandler(svc OccupancyService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lotID := r.URL.Query().Get("lot")
		if lotID == "" {
			writeError(w, http.StatusBadRequest, "lot is required")
			return
		}

		summary, err := svc.Lot(r.Context(), lotID)
		if err != nil {
			if !writeStoreError(w, err) {
				writeError(w, http.StatusInternalServerError, "failed to fetch lot")
			}
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}
