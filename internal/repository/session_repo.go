package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"smartpark/internal/models"
)

const recordsKeyPrefix = "parking-records:"

// SessionRepository persists parking sessions. Session ids for a plate live
// in a list under parking-records:{plate} (insertion order is the creation
// order), each session document under parking-records:{plate}:{id}. Every
// write publishes a SessionEvent on the plate's channel so clients can watch
// history in realtime.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository returns repository instance.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func recordsKey(plate string) string {
	return recordsKeyPrefix + plate
}

func sessionKey(plate, id string) string {
	return recordsKey(plate) + ":" + id
}

type sessionReader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

func listSessions(ctx context.Context, c sessionReader, plate string) ([]models.Session, error) {
	ids, err := c.LRange(ctx, recordsKey(plate), 0, -1).Result()
	if err != nil {
		return nil, transient(err)
	}

	sessions := make([]models.Session, 0, len(ids))
	for _, id := range ids {
		raw, err := c.Get(ctx, sessionKey(plate, id)).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, transient(err)
		}
		var s models.Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("session %s/%s: decode: %w", plate, id, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// List returns all sessions for the plate in creation order.
func (r *SessionRepository) List(ctx context.Context, plate string) ([]models.Session, error) {
	return listSessions(ctx, r.client, plate)
}

// Get loads a single session.
func (r *SessionRepository) Get(ctx context.Context, plate, id string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(plate, id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, transient(err)
	}
	var s models.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("session %s/%s: decode: %w", plate, id, err)
	}
	return &s, nil
}

// Create opens a new session for the plate. The no-open-session precondition
// is re-checked under WATCH of the plate's session list, so two concurrent
// entries cannot both commit. The generated id is written back to s.
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	listKey := recordsKey(s.Plate)

	txf := func(tx *redis.Tx) error {
		sessions, err := listSessions(ctx, tx, s.Plate)
		if err != nil {
			return err
		}
		for i := range sessions {
			if sessions[i].Open() {
				return ErrOpenSessionExists
			}
		}

		s.ID = uuid.NewString()
		payload, err := json.Marshal(s)
		if err != nil {
			return err
		}
		event, err := json.Marshal(models.SessionEvent{Type: models.SessionOpened, Plate: s.Plate, Session: *s})
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, sessionKey(s.Plate, s.ID), payload, 0)
			pipe.RPush(ctx, listKey, s.ID)
			pipe.Publish(ctx, listKey, event)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < txRetries; attempt++ {
		err := r.client.Watch(ctx, txf, listKey)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, ErrOpenSessionExists):
			return err
		default:
			return transient(err)
		}
	}
	return transient(redis.TxFailedErr)
}

// Close finalizes an open session. The apply callback fills the exit fields;
// Paid is forced true and the whole document is written in one update. A
// retried close after an unacknowledged success observes Paid=true and fails
// with ErrSessionClosed instead of recomputing a charge.
func (r *SessionRepository) Close(ctx context.Context, plateID, id string, apply func(*models.Session)) (*models.Session, error) {
	key := sessionKey(plateID, id)
	var closed models.Session

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		var s models.Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return fmt.Errorf("session %s/%s: decode: %w", plateID, id, err)
		}
		if !s.Open() {
			return ErrSessionClosed
		}

		apply(&s)
		s.Paid = true

		payload, err := json.Marshal(&s)
		if err != nil {
			return err
		}
		event, err := json.Marshal(models.SessionEvent{Type: models.SessionClosed, Plate: plateID, Session: s})
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.Publish(ctx, recordsKey(plateID), event)
			return nil
		})
		if err == nil {
			closed = s
		}
		return err
	}

	for attempt := 0; attempt < txRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return &closed, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionClosed):
			return nil, err
		default:
			return nil, transient(err)
		}
	}
	return nil, transient(redis.TxFailedErr)
}

// MarkInvalid flags an unpaid duplicate session so it no longer counts as
// open and is never charged.
func (r *SessionRepository) MarkInvalid(ctx context.Context, plateID, id string) error {
	key := sessionKey(plateID, id)

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		var s models.Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return fmt.Errorf("session %s/%s: decode: %w", plateID, id, err)
		}
		if !s.Open() {
			return ErrSessionClosed
		}

		s.Invalid = true
		payload, err := json.Marshal(&s)
		if err != nil {
			return err
		}
		event, err := json.Marshal(models.SessionEvent{Type: models.SessionInvalidated, Plate: plateID, Session: s})
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.Publish(ctx, recordsKey(plateID), event)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < txRetries; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionClosed):
			return err
		default:
			return transient(err)
		}
	}
	return transient(redis.TxFailedErr)
}

// Watch subscribes to the plate's session channel and streams change events
// until ctx is done.
func (r *SessionRepository) Watch(ctx context.Context, plateID string) (<-chan models.SessionEvent, error) {
	sub := r.client.Subscribe(ctx, recordsKey(plateID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, transient(err)
	}

	out := make(chan models.SessionEvent, 8)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev models.SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
