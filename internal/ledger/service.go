// Package ledger owns the open/closed lifecycle of parking sessions. For
// any plate at most one session is open (unpaid) at a time; the charge is
// computed once, on exit, from the two recorded timestamps.
package ledger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"smartpark/internal/models"
	"smartpark/internal/plate"
	"smartpark/internal/repository"
)

var (
	// ErrSessionAlreadyOpen means the plate has an unpaid session; a second
	// entry is refused.
	ErrSessionAlreadyOpen = errors.New("ledger: session already open for plate")
	// ErrNoOpenSession means there is nothing to close, the session is
	// already closed, or the caller's session id is stale.
	ErrNoOpenSession = errors.New("ledger: no open session for plate")
	// ErrInvalidPlate means the plate does not normalize to a legal value.
	ErrInvalidPlate = errors.New("ledger: invalid plate")
)

// SessionStore defines the storage contract used by the service.
type SessionStore interface {
	List(ctx context.Context, plateID string) ([]models.Session, error)
	Create(ctx context.Context, s *models.Session) error
	Close(ctx context.Context, plateID, id string, apply func(*models.Session)) (*models.Session, error)
	MarkInvalid(ctx context.Context, plateID, id string) error
	Watch(ctx context.Context, plateID string) (<-chan models.SessionEvent, error)
}

// Archiver mirrors closed sessions into secondary storage; failures are
// logged, never surfaced.
type Archiver interface {
	Archive(ctx context.Context, s *models.Session) error
}

// Metrics receives counters from the session flow.
type Metrics interface {
	RecordEntry(method string)
	RecordExit(method string, charge float64)
	RecordConflict(op string)
}

// Service ties the session store, tariffs and archive together.
type Service struct {
	store      SessionStore
	tariff     Tariff
	gateTariff GateTariff
	archive    Archiver
	metrics    Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewService builds the ledger service. archive and metrics may be nil.
func NewService(store SessionStore, tariff Tariff, gateTariff GateTariff, archive Archiver, metrics Metrics, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		tariff:     tariff,
		gateTariff: gateTariff,
		archive:    archive,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Enter opens a session for the plate.
func (s *Service) Enter(ctx context.Context, plateID string) (*models.Session, error) {
	return s.enter(ctx, plateID, models.EntryMethodApp, 0, "")
}

// EnterFromCamera opens a session for a gate detection, keeping the
// detection confidence and frame reference on the record.
func (s *Service) EnterFromCamera(ctx context.Context, plateID string, confidence float64, image string) (*models.Session, error) {
	return s.enter(ctx, plateID, models.EntryMethodCamera, confidence, image)
}

func (s *Service) enter(ctx context.Context, plateID, method string, confidence float64, image string) (*models.Session, error) {
	normalized := plate.Normalize(plateID)
	if !plate.Valid(normalized) {
		return nil, ErrInvalidPlate
	}

	// Check immediately before the write; the store re-checks under its own
	// transaction so a concurrent entry cannot slip through the gap.
	sessions, err := s.store.List(ctx, normalized)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].Open() {
			s.recordConflict("enter")
			return nil, ErrSessionAlreadyOpen
		}
	}

	session := &models.Session{
		Plate:       normalized,
		EntryTime:   s.now().UTC(),
		Paid:        false,
		EntryMethod: method,
		Confidence:  confidence,
		Image:       image,
	}
	if err := s.store.Create(ctx, session); err != nil {
		if errors.Is(err, repository.ErrOpenSessionExists) {
			s.recordConflict("enter")
			return nil, ErrSessionAlreadyOpen
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordEntry(method)
	}
	s.logger.Info("vehicle entered",
		zap.String("plate", normalized),
		zap.String("session_id", session.ID),
		zap.String("method", method),
	)
	return session, nil
}

// Exit closes the plate's open session, computing duration and charge from
// the stored entry time and the current clock. sessionID, when non-empty,
// must match the currently open session; a stale id from a restarted client
// fails instead of closing the wrong record.
func (s *Service) Exit(ctx context.Context, plateID, sessionID string) (*models.Session, error) {
	return s.exit(ctx, plateID, sessionID, s.tariff.Charge, 0, "")
}

// ExitFromCamera closes the open session for a gate detection using the gate
// tariff.
func (s *Service) ExitFromCamera(ctx context.Context, plateID string, confidence float64, image string) (*models.Session, error) {
	return s.exit(ctx, plateID, "", s.gateTariff.Charge, confidence, image)
}

func (s *Service) exit(ctx context.Context, plateID, sessionID string, charge func(entry, exit time.Time) (int, float64), confidence float64, image string) (*models.Session, error) {
	normalized := plate.Normalize(plateID)
	if !plate.Valid(normalized) {
		return nil, ErrInvalidPlate
	}

	open, err := s.CurrentOpenSession(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if sessionID != "" && open.ID != sessionID {
		s.recordConflict("exit")
		return nil, ErrNoOpenSession
	}

	exitTime := s.now().UTC()
	closed, err := s.store.Close(ctx, normalized, open.ID, func(sess *models.Session) {
		minutes, amount := charge(sess.EntryTime, exitTime)
		sess.ExitTime = &exitTime
		sess.DurationMinutes = &minutes
		sess.Charge = &amount
		if confidence > 0 {
			sess.ExitConfidence = confidence
		}
		if image != "" {
			sess.ExitImage = image
		}
	})
	if err != nil {
		if errors.Is(err, repository.ErrSessionClosed) || errors.Is(err, repository.ErrSessionNotFound) {
			s.recordConflict("exit")
			return nil, ErrNoOpenSession
		}
		return nil, err
	}

	if s.archive != nil {
		if err := s.archive.Archive(ctx, closed); err != nil {
			s.logger.Warn("failed to archive closed session",
				zap.String("plate", normalized),
				zap.String("session_id", closed.ID),
				zap.Error(err),
			)
		}
	}
	if s.metrics != nil && closed.Charge != nil {
		s.metrics.RecordExit(closed.EntryMethod, *closed.Charge)
	}
	s.logger.Info("vehicle exited",
		zap.String("plate", normalized),
		zap.String("session_id", closed.ID),
		zap.Intp("duration_minutes", closed.DurationMinutes),
		zap.Float64p("charge", closed.Charge),
	)
	return closed, nil
}

// CurrentOpenSession recomputes the open session from the store. Callers
// that lost their local reference (app restart) must use this instead of a
// cached id. When an integrity anomaly left several sessions open, the
// earliest wins; Reconcile cleans up the rest.
func (s *Service) CurrentOpenSession(ctx context.Context, plateID string) (*models.Session, error) {
	normalized := plate.Normalize(plateID)
	sessions, err := s.store.List(ctx, normalized)
	if err != nil {
		return nil, err
	}

	var open *models.Session
	openCount := 0
	for i := range sessions {
		if sessions[i].Open() {
			openCount++
			if open == nil {
				open = &sessions[i]
			}
		}
	}
	if open == nil {
		return nil, ErrNoOpenSession
	}
	if openCount > 1 {
		s.logger.Warn("multiple open sessions for plate",
			zap.String("plate", normalized),
			zap.Int("open_count", openCount),
		)
	}
	return open, nil
}

// History returns all sessions for the plate, most recent first by creation
// order.
func (s *Service) History(ctx context.Context, plateID string) ([]models.Session, error) {
	normalized := plate.Normalize(plateID)
	sessions, err := s.store.List(ctx, normalized)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	return sessions, nil
}

// Reconcile repairs the at-most-one-open-session invariant after a detected
// race: every open session after the earliest is marked invalid so it can
// never be charged. Returns the ids that were invalidated.
func (s *Service) Reconcile(ctx context.Context, plateID string) ([]string, error) {
	normalized := plate.Normalize(plateID)
	sessions, err := s.store.List(ctx, normalized)
	if err != nil {
		return nil, err
	}

	var marked []string
	seenOpen := false
	for i := range sessions {
		if !sessions[i].Open() {
			continue
		}
		if !seenOpen {
			seenOpen = true
			continue
		}
		if err := s.store.MarkInvalid(ctx, normalized, sessions[i].ID); err != nil {
			if errors.Is(err, repository.ErrSessionClosed) || errors.Is(err, repository.ErrSessionNotFound) {
				continue
			}
			return marked, err
		}
		marked = append(marked, sessions[i].ID)
		s.logger.Warn("invalidated duplicate open session",
			zap.String("plate", normalized),
			zap.String("session_id", sessions[i].ID),
		)
	}
	return marked, nil
}

// WatchHistory streams session changes for the plate until ctx is done.
func (s *Service) WatchHistory(ctx context.Context, plateID string) (<-chan models.SessionEvent, error) {
	return s.store.Watch(ctx, plate.Normalize(plateID))
}

func (s *Service) recordConflict(op string) {
	if s.metrics != nil {
		s.metrics.RecordConflict(op)
	}
}

// WithClock overrides the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
