package repository

import (
	"context"
	"database/sql"

	"smartpark/internal/models"
)

// ArchiveRepository mirrors closed sessions into Postgres for offline
// reporting. The realtime store stays authoritative; inserts are idempotent
// on (plate, session_id) so a retried exit never duplicates a row.
type ArchiveRepository struct {
	db *sql.DB
}

// NewArchiveRepository returns repository instance.
func NewArchiveRepository(db *sql.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// Archive inserts one closed session.
func (r *ArchiveRepository) Archive(ctx context.Context, s *models.Session) error {
	const query = `
		INSERT INTO parking_session_archive
			(plate, session_id, entry_time, exit_time, duration_minutes, charge, entry_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (plate, session_id) DO NOTHING
	`
	var (
		exitTime sql.NullTime
		duration sql.NullInt64
		charge   sql.NullFloat64
	)
	if s.ExitTime != nil {
		exitTime = sql.NullTime{Time: *s.ExitTime, Valid: true}
	}
	if s.DurationMinutes != nil {
		duration = sql.NullInt64{Int64: int64(*s.DurationMinutes), Valid: true}
	}
	if s.Charge != nil {
		charge = sql.NullFloat64{Float64: *s.Charge, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		s.Plate,
		s.ID,
		s.EntryTime,
		exitTime,
		duration,
		charge,
		s.EntryMethod,
	)
	return err
}
