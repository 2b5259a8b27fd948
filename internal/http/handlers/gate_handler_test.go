package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"smartpark/internal/gate"
	"smartpark/internal/http/middleware"
	"smartpark/internal/ledger"
	"smartpark/internal/models"
)

type fakeGate struct {
	plateSeenFn func(ctx context.Context, d gate.Detection) (*models.Session, error)
}

func (f *fakeGate) PlateSeen(ctx context.Context, d gate.Detection) (*models.Session, error) {
	return f.plateSeenFn(ctx, d)
}

type fakeUnregReader struct {
	entries map[string][]models.UnregisteredEntry
}

func (f *fakeUnregReader) List(ctx context.Context, plateID string) ([]models.UnregisteredEntry, error) {
	return f.entries[plateID], nil
}

func newGateHandler(svc GateService, unreg UnregisteredReader) *GateHandler {
	return NewGateHandler(svc, unreg, zap.NewNop())
}

func TestPlateSeenHandlerAccepted(t *testing.T) {
	svc := &fakeGate{
		plateSeenFn: func(ctx context.Context, d gate.Detection) (*models.Session, error) {
			if d.Plate != "AB12CDE" || d.Direction != gate.DirectionEntry {
				t.Errorf("detection = %+v", d)
			}
			return &models.Session{ID: "sess-1", Plate: d.Plate, EntryMethod: models.EntryMethodCamera}, nil
		},
	}
	handler := newGateHandler(svc, &fakeUnregReader{})

	rec := postJSON(t, http.HandlerFunc(handler.HandlePlateSeen), "/internal/anpr/plate-seen",
		`{"plate":"AB12CDE","direction":"entry","confidence":0.91,"image":"frames/1.jpg"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestPlateSeenHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unregistered plate", gate.ErrUnregisteredPlate, http.StatusForbidden},
		{"bad direction", gate.ErrUnknownDirection, http.StatusBadRequest},
		{"already open", ledger.ErrSessionAlreadyOpen, http.StatusConflict},
		{"no open session", ledger.ErrNoOpenSession, http.StatusConflict},
		{"invalid plate", ledger.ErrInvalidPlate, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeGate{
				plateSeenFn: func(ctx context.Context, d gate.Detection) (*models.Session, error) {
					return nil, tt.err
				},
			}
			handler := newGateHandler(svc, &fakeUnregReader{})
			rec := postJSON(t, http.HandlerFunc(handler.HandlePlateSeen), "/internal/anpr/plate-seen",
				`{"plate":"AB12CDE","direction":"entry"}`)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestPlateSeenHandlerRequiresPlate(t *testing.T) {
	svc := &fakeGate{
		plateSeenFn: func(ctx context.Context, d gate.Detection) (*models.Session, error) {
			t.Fatal("service called without a plate")
			return nil, nil
		},
	}
	handler := newGateHandler(svc, &fakeUnregReader{})
	rec := postJSON(t, http.HandlerFunc(handler.HandlePlateSeen), "/internal/anpr/plate-seen", `{"direction":"entry"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// The detector endpoints sit behind the shared-key middleware; a detector
// with the wrong key never reaches the handler.
func TestPlateSeenHandlerBehindAPIKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("gate-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}
	verifier, err := gate.NewBcryptVerifier(string(hash))
	if err != nil {
		t.Fatalf("NewBcryptVerifier: %v", err)
	}

	svc := &fakeGate{
		plateSeenFn: func(ctx context.Context, d gate.Detection) (*models.Session, error) {
			return &models.Session{ID: "sess-1"}, nil
		},
	}
	handler := middleware.APIKey(verifier)(newGateHandler(svc, &fakeUnregReader{}).HandlePlateSeen)

	body := `{"plate":"AB12CDE","direction":"entry"}`

	t.Run("missing key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/internal/anpr/plate-seen", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
	t.Run("wrong key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/internal/anpr/plate-seen", strings.NewReader(body))
		req.Header.Set("X-Api-Key", "wrong")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
	t.Run("correct key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/internal/anpr/plate-seen", strings.NewReader(body))
		req.Header.Set("X-Api-Key", "gate-secret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusAccepted {
			t.Errorf("status = %d, want 202", rec.Code)
		}
	})
}

func TestUnregisteredHandler(t *testing.T) {
	unreg := &fakeUnregReader{entries: map[string][]models.UnregisteredEntry{
		"ZZ99XYZ": {{Timestamp: "2026-03-14T09:00:00Z", Confidence: 0.77, Image: "frames/2.jpg"}},
	}}
	handler := newGateHandler(&fakeGate{}, unreg)

	req := httptest.NewRequest(http.MethodGet, "/internal/anpr/unregistered?plate=ZZ99XYZ", nil)
	rec := httptest.NewRecorder()
	handler.HandleUnregistered(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Entries []models.UnregisteredEntry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Entries) != 1 || body.Entries[0].Confidence != 0.77 {
		t.Errorf("entries = %+v", body.Entries)
	}
}

func TestUnregisteredHandlerRequiresPlate(t *testing.T) {
	handler := newGateHandler(&fakeGate{}, &fakeUnregReader{})
	req := httptest.NewRequest(http.MethodGet, "/internal/anpr/unregistered", nil)
	rec := httptest.NewRecorder()
	handler.HandleUnregistered(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
