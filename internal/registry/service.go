// Package registry owns the account records and the global invariant that a
// license plate belongs to at most one account.
package registry

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"smartpark/internal/models"
	"smartpark/internal/plate"
	"smartpark/internal/repository"
)

var (
	// ErrDuplicatePlateOtherAccount means the plate already belongs to a
	// different account.
	ErrDuplicatePlateOtherAccount = errors.New("registry: plate registered to another account")
	// ErrDuplicatePlateSameAccount means the same account already lists the
	// plate; re-registering is refused rather than silently succeeding.
	ErrDuplicatePlateSameAccount = errors.New("registry: plate already registered to this account")
	// ErrAccountNotFound represents a login against an unknown email.
	ErrAccountNotFound = errors.New("registry: account not found")
	// ErrPlateMismatch means the plate is not in the account's plate set.
	ErrPlateMismatch = errors.New("registry: plate does not match account records")
)

// AccountStore defines the storage contract used by the service.
type AccountStore interface {
	Get(ctx context.Context, email string) (*models.Account, error)
	PlateOwner(ctx context.Context, plateID string) (*models.Account, error)
	Upsert(ctx context.Context, acc *models.Account, newPlate string) error
}

// Identity is the verified (email, plate) pair returned to callers on
// successful registration or login.
type Identity struct {
	Email string `json:"email"`
	Plate string `json:"plate"`
}

// Service contains registration and login logic.
type Service struct {
	store  AccountStore
	logger *zap.Logger
}

// NewService builds the registry service.
func NewService(store AccountStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Register validates the input, normalizes the plate and creates the account
// or appends the plate to an existing one. The cross-account uniqueness
// check runs before any write; the store re-checks it transactionally, so a
// concurrent registration of the same plate under another email loses
// instead of producing a duplicate.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Identity, error) {
	if err := validateRegistration(in); err != nil {
		return nil, err
	}
	normalized := plate.Normalize(in.Plate)

	owner, err := s.store.PlateOwner(ctx, normalized)
	if err != nil && !errors.Is(err, repository.ErrPlateNotFound) {
		return nil, err
	}
	if owner != nil && owner.Email != in.Email {
		return nil, ErrDuplicatePlateOtherAccount
	}

	existing, err := s.store.Get(ctx, in.Email)
	if err != nil && !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, err
	}
	if existing != nil && existing.HasPlate(normalized) {
		return nil, ErrDuplicatePlateSameAccount
	}

	acc := &models.Account{
		Name:  in.Name,
		Phone: in.Phone,
		Email: in.Email,
	}
	if err := s.store.Upsert(ctx, acc, normalized); err != nil {
		switch {
		case errors.Is(err, repository.ErrPlateTaken):
			return nil, ErrDuplicatePlateOtherAccount
		case errors.Is(err, repository.ErrPlateListed):
			return nil, ErrDuplicatePlateSameAccount
		default:
			return nil, err
		}
	}

	s.logger.Info("account registered",
		zap.String("email", in.Email),
		zap.String("plate", normalized),
	)
	return &Identity{Email: in.Email, Plate: normalized}, nil
}

// Login verifies that the email has an account and that the candidate plate
// is in its plate set.
func (s *Service) Login(ctx context.Context, email, plateCandidate string) (*Identity, error) {
	if err := validateLogin(email, plateCandidate); err != nil {
		return nil, err
	}
	normalized := plate.Normalize(plateCandidate)

	acc, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if !acc.HasPlate(normalized) {
		return nil, ErrPlateMismatch
	}

	return &Identity{Email: email, Plate: normalized}, nil
}

// IsRegistered reports whether any account lists the plate. Used by the
// camera gate before opening a session.
func (s *Service) IsRegistered(ctx context.Context, plateID string) (bool, error) {
	_, err := s.store.PlateOwner(ctx, plateID)
	if err != nil {
		if errors.Is(err, repository.ErrPlateNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
