// Package gate handles camera-driven entries and exits reported by the ANPR
// detector.
package gate

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"smartpark/internal/models"
	"smartpark/internal/plate"
)

// ErrUnregisteredPlate means the detected plate belongs to no account; the
// detection is logged for operator review and the barrier stays down.
var ErrUnregisteredPlate = errors.New("gate: plate not registered")

// ErrUnknownDirection means the detector sent a direction other than
// entry/exit.
var ErrUnknownDirection = errors.New("gate: unknown direction")

// Directions reported by the detector.
const (
	DirectionEntry = "entry"
	DirectionExit  = "exit"
)

// PlateDirectory answers whether a plate belongs to any account.
type PlateDirectory interface {
	IsRegistered(ctx context.Context, plateID string) (bool, error)
}

// SessionFlow is the slice of the ledger the gate drives.
type SessionFlow interface {
	EnterFromCamera(ctx context.Context, plateID string, confidence float64, image string) (*models.Session, error)
	ExitFromCamera(ctx context.Context, plateID string, confidence float64, image string) (*models.Session, error)
}

// UnregisteredLog records detections of unknown plates.
type UnregisteredLog interface {
	Append(ctx context.Context, plateID string, entry models.UnregisteredEntry) error
}

// Detection is one plate read from a camera frame.
type Detection struct {
	Plate      string
	Direction  string
	Confidence float64
	Image      string
}

// Service routes detections into the ledger.
type Service struct {
	accounts PlateDirectory
	sessions SessionFlow
	unreg    UnregisteredLog
	logger   *zap.Logger
	now      func() time.Time
}

// NewService builds the gate service.
func NewService(accounts PlateDirectory, sessions SessionFlow, unreg UnregisteredLog, logger *zap.Logger) *Service {
	return &Service{
		accounts: accounts,
		sessions: sessions,
		unreg:    unreg,
		logger:   logger,
		now:      time.Now,
	}
}

// PlateSeen handles one detection. Entries for unknown plates are appended
// to the unregistered log and refused; everything else flows through the
// ledger with the camera tariff on exit.
func (s *Service) PlateSeen(ctx context.Context, d Detection) (*models.Session, error) {
	normalized := plate.Normalize(d.Plate)

	switch d.Direction {
	case DirectionEntry:
		registered, err := s.accounts.IsRegistered(ctx, normalized)
		if err != nil {
			return nil, err
		}
		if !registered {
			entry := models.UnregisteredEntry{
				Timestamp:  s.now().UTC().Format(time.RFC3339),
				Confidence: d.Confidence,
				Image:      d.Image,
			}
			if err := s.unreg.Append(ctx, normalized, entry); err != nil {
				s.logger.Warn("failed to log unregistered plate",
					zap.String("plate", normalized),
					zap.Error(err),
				)
			}
			s.logger.Info("unregistered plate at gate",
				zap.String("plate", normalized),
				zap.Float64("confidence", d.Confidence),
			)
			return nil, ErrUnregisteredPlate
		}
		return s.sessions.EnterFromCamera(ctx, normalized, d.Confidence, d.Image)

	case DirectionExit:
		return s.sessions.ExitFromCamera(ctx, normalized, d.Confidence, d.Image)

	default:
		return nil, ErrUnknownDirection
	}
}
