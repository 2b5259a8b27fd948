package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"smartpark/internal/models"
)

const unregisteredKeyPrefix = "unregistered-entries:"

// UnregisteredRepository appends camera detections of plates that belong to
// no account, for later operator review.
type UnregisteredRepository struct {
	client *redis.Client
}

// NewUnregisteredRepository returns repository instance.
func NewUnregisteredRepository(client *redis.Client) *UnregisteredRepository {
	return &UnregisteredRepository{client: client}
}

func unregisteredKey(plate string) string {
	return unregisteredKeyPrefix + plate
}

// Append records one detection event for the plate.
func (r *UnregisteredRepository) Append(ctx context.Context, plateID string, entry models.UnregisteredEntry) error {
	payload, err := json.Marshal(&entry)
	if err != nil {
		return err
	}
	if err := r.client.RPush(ctx, unregisteredKey(plateID), payload).Err(); err != nil {
		return transient(err)
	}
	return nil
}

// List returns all detection events for the plate in arrival order.
func (r *UnregisteredRepository) List(ctx context.Context, plateID string) ([]models.UnregisteredEntry, error) {
	raws, err := r.client.LRange(ctx, unregisteredKey(plateID), 0, -1).Result()
	if err != nil {
		return nil, transient(err)
	}
	entries := make([]models.UnregisteredEntry, 0, len(raws))
	for i, raw := range raws {
		var e models.UnregisteredEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("unregistered entry %s[%d]: decode: %w", plateID, i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
