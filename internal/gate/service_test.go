package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"smartpark/internal/models"
)

type fakeDirectory struct {
	registered map[string]bool
	err        error
}

func (f *fakeDirectory) IsRegistered(ctx context.Context, plateID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.registered[plateID], nil
}

type fakeFlow struct {
	entered []string
	exited  []string
	err     error
}

func (f *fakeFlow) EnterFromCamera(ctx context.Context, plateID string, confidence float64, image string) (*models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.entered = append(f.entered, plateID)
	return &models.Session{ID: "sess-1", Plate: plateID, EntryMethod: models.EntryMethodCamera, Confidence: confidence, Image: image}, nil
}

func (f *fakeFlow) ExitFromCamera(ctx context.Context, plateID string, confidence float64, image string) (*models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.exited = append(f.exited, plateID)
	return &models.Session{ID: "sess-1", Plate: plateID, Paid: true}, nil
}

type fakeUnregLog struct {
	entries map[string][]models.UnregisteredEntry
	err     error
}

func newFakeUnregLog() *fakeUnregLog {
	return &fakeUnregLog{entries: make(map[string][]models.UnregisteredEntry)}
}

func (f *fakeUnregLog) Append(ctx context.Context, plateID string, entry models.UnregisteredEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries[plateID] = append(f.entries[plateID], entry)
	return nil
}

func newGate(dir PlateDirectory, flow SessionFlow, unreg UnregisteredLog) *Service {
	svc := NewService(dir, flow, unreg, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestPlateSeenEntryRegistered(t *testing.T) {
	flow := &fakeFlow{}
	unreg := newFakeUnregLog()
	svc := newGate(&fakeDirectory{registered: map[string]bool{"AB12CDE": true}}, flow, unreg)

	sess, err := svc.PlateSeen(context.Background(), Detection{
		Plate:      "ab12-cde",
		Direction:  DirectionEntry,
		Confidence: 0.91,
		Image:      "frames/1.jpg",
	})
	if err != nil {
		t.Fatalf("PlateSeen: %v", err)
	}
	if sess.Plate != "AB12CDE" || sess.Confidence != 0.91 {
		t.Errorf("session = %+v", sess)
	}
	if len(flow.entered) != 1 {
		t.Errorf("entries = %v", flow.entered)
	}
	if len(unreg.entries) != 0 {
		t.Errorf("unregistered log written for registered plate: %v", unreg.entries)
	}
}

func TestPlateSeenEntryUnregistered(t *testing.T) {
	flow := &fakeFlow{}
	unreg := newFakeUnregLog()
	svc := newGate(&fakeDirectory{registered: map[string]bool{}}, flow, unreg)

	_, err := svc.PlateSeen(context.Background(), Detection{
		Plate:      "ZZ99XYZ",
		Direction:  DirectionEntry,
		Confidence: 0.77,
		Image:      "frames/2.jpg",
	})
	if !errors.Is(err, ErrUnregisteredPlate) {
		t.Fatalf("err = %v, want ErrUnregisteredPlate", err)
	}
	if len(flow.entered) != 0 {
		t.Errorf("ledger entered for unregistered plate")
	}
	logged := unreg.entries["ZZ99XYZ"]
	if len(logged) != 1 {
		t.Fatalf("unregistered entries = %v", logged)
	}
	if logged[0].Confidence != 0.77 || logged[0].Image != "frames/2.jpg" {
		t.Errorf("logged entry = %+v", logged[0])
	}
	if logged[0].Timestamp != "2026-03-14T09:00:00Z" {
		t.Errorf("timestamp = %q", logged[0].Timestamp)
	}
}

// A failing unregistered log must not mask the refusal.
func TestPlateSeenEntryUnregisteredLogFailure(t *testing.T) {
	unreg := newFakeUnregLog()
	unreg.err = errors.New("store down")
	svc := newGate(&fakeDirectory{}, &fakeFlow{}, unreg)

	_, err := svc.PlateSeen(context.Background(), Detection{Plate: "ZZ99XYZ", Direction: DirectionEntry})
	if !errors.Is(err, ErrUnregisteredPlate) {
		t.Fatalf("err = %v, want ErrUnregisteredPlate", err)
	}
}

func TestPlateSeenExit(t *testing.T) {
	flow := &fakeFlow{}
	svc := newGate(&fakeDirectory{}, flow, newFakeUnregLog())

	sess, err := svc.PlateSeen(context.Background(), Detection{
		Plate:     "ab12cde",
		Direction: DirectionExit,
	})
	if err != nil {
		t.Fatalf("PlateSeen: %v", err)
	}
	if !sess.Paid {
		t.Errorf("exit session not closed: %+v", sess)
	}
	if len(flow.exited) != 1 || flow.exited[0] != "AB12CDE" {
		t.Errorf("exits = %v", flow.exited)
	}
}

func TestPlateSeenUnknownDirection(t *testing.T) {
	svc := newGate(&fakeDirectory{}, &fakeFlow{}, newFakeUnregLog())
	_, err := svc.PlateSeen(context.Background(), Detection{Plate: "AB12CDE", Direction: "sideways"})
	if !errors.Is(err, ErrUnknownDirection) {
		t.Fatalf("err = %v, want ErrUnknownDirection", err)
	}
}

func TestPlateSeenDirectoryError(t *testing.T) {
	boom := errors.New("store unavailable")
	svc := newGate(&fakeDirectory{err: boom}, &fakeFlow{}, newFakeUnregLog())
	_, err := svc.PlateSeen(context.Background(), Detection{Plate: "AB12CDE", Direction: DirectionEntry})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
