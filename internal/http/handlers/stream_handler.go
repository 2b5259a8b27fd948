package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"smartpark/internal/models"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The app client connects from a device origin, not a browser page.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// OccupancyWatcher streams space status changes.
type OccupancyWatcher interface {
	Watch(ctx context.Context, lotID string) (<-chan models.SpaceEvent, error)
}

// HistoryWatcher streams session changes for a plate.
type HistoryWatcher interface {
	WatchHistory(ctx context.Context, plateID string) (<-chan models.SessionEvent, error)
}

// NewLotWatchHandler handles GET /ws/lots?lot={lotId}, upgrading to a
// websocket that pushes one JSON SpaceEvent per status change.
func NewLotWatchHandler(svc OccupancyWatcher, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lotID := r.URL.Query().Get("lot")
		if lotID == "" {
			writeError(w, http.StatusBadRequest, "lot is required")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		events, err := svc.Watch(ctx, lotID)
		if err != nil {
			if !writeStoreError(w, err) {
				writeError(w, http.StatusInternalServerError, "failed to watch lot")
			}
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		go discardReads(conn, cancel)

		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}

// NewHistoryWatchHandler handles GET /ws/history, pushing one JSON
// SessionEvent per change to the identity plate's records.
func NewHistoryWatchHandler(svc HistoryWatcher, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		plateID, ok := identityPlate(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		events, err := svc.WatchHistory(ctx, plateID)
		if err != nil {
			if !writeStoreError(w, err) {
				writeError(w, http.StatusInternalServerError, "failed to watch history")
			}
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		go discardReads(conn, cancel)

		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}

// discardReads drains the client side and cancels the stream on close.
func discardReads(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
