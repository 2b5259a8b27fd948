package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"smartpark/internal/models"
)

const lotKeyPrefix = "parking-lots:"

// LotRepository reads space occupancy published by the external detector
// under parking-lots:{lotId}:spaces:{spaceId}. This service never writes the
// namespace.
type LotRepository struct {
	client *redis.Client
}

// NewLotRepository returns repository instance.
func NewLotRepository(client *redis.Client) *LotRepository {
	return &LotRepository{client: client}
}

func spacesPrefix(lotID string) string {
	return lotKeyPrefix + lotID + ":spaces:"
}

type spaceDoc struct {
	Status string `json:"status"`
}

// Spaces returns the current occupancy of every space in the lot, sorted by
// space id for stable rendering.
func (r *LotRepository) Spaces(ctx context.Context, lotID string) ([]models.Space, error) {
	prefix := spacesPrefix(lotID)

	var spaces []models.Space
	iter := r.client.Scan(ctx, 0, prefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := r.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, transient(err)
		}
		var doc spaceDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			continue
		}
		spaces = append(spaces, models.Space{
			ID:     keySuffix(key, prefix),
			Status: doc.Status,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, transient(err)
	}

	sort.Slice(spaces, func(i, j int) bool { return spaces[i].ID < spaces[j].ID })
	return spaces, nil
}

// Watch streams space status changes for the lot via keyspace notifications
// (requires notify-keyspace-events to include K and $ on the store).
func (r *LotRepository) Watch(ctx context.Context, lotID string) (<-chan models.SpaceEvent, error) {
	prefix := spacesPrefix(lotID)
	pattern := "__keyspace@*__:" + prefix + "*"

	sub := r.client.PSubscribe(ctx, pattern)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, transient(err)
	}

	out := make(chan models.SpaceEvent, 8)
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
				key := notifiedKey(msg.Channel)
				if key == "" || !strings.HasPrefix(key, prefix) {
					continue
				}
				raw, err := r.client.Get(ctx, key).Result()
				if err != nil {
					continue
				}
				var doc spaceDoc
				if err := json.Unmarshal([]byte(raw), &doc); err != nil {
					continue
				}
				ev := models.SpaceEvent{
					LotID: lotID,
					Space: models.Space{ID: keySuffix(key, prefix), Status: doc.Status},
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

// notifiedKey extracts the store key from a __keyspace@<db>__:<key> channel.
func notifiedKey(channel string) string {
	i := strings.Index(channel, "__:")
	if i < 0 {
		return ""
	}
	return channel[i+len("__:"):]
}
