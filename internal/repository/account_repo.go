package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"smartpark/internal/models"
	"smartpark/internal/storekey"
)

const (
	accountKeyPrefix = "users:"
	plateIndexPrefix = "plates:"

	txRetries = 3
	scanCount = 200
)

// AccountRepository persists account records in the document store. Accounts
// live under users:{storageKey(email)}; a secondary index plates:{plate} ->
// account key is maintained in the same transaction as the account write.
type AccountRepository struct {
	client *redis.Client
}

// NewAccountRepository returns repository instance.
func NewAccountRepository(client *redis.Client) *AccountRepository {
	return &AccountRepository{client: client}
}

func accountKey(email string) string {
	return accountKeyPrefix + storekey.Encode(email)
}

func legacyAccountKey(email string) string {
	return accountKeyPrefix + storekey.Legacy(email)
}

func plateIndexKey(plate string) string {
	return plateIndexPrefix + plate
}

// Get loads the account for an email, falling back once to the legacy key
// derivation for records written by earlier releases.
func (r *AccountRepository) Get(ctx context.Context, email string) (*models.Account, error) {
	acc, _, err := getAccount(ctx, r.client, email)
	return acc, err
}

type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getAccount(ctx context.Context, c redisCmdable, email string) (*models.Account, string, error) {
	primary := accountKey(email)
	keys := []string{primary}
	if legacy := legacyAccountKey(email); legacy != primary {
		keys = append(keys, legacy)
	}

	for _, key := range keys {
		raw, err := c.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, "", transient(err)
		}
		var acc models.Account
		if err := json.Unmarshal([]byte(raw), &acc); err != nil {
			return nil, "", fmt.Errorf("account %s: decode: %w", key, err)
		}
		return &acc, key, nil
	}
	return nil, "", ErrAccountNotFound
}

// PlateOwner returns the account that lists the plate. The secondary index
// is consulted first; on a miss the registry is scanned in full, which also
// covers records written before the index existed.
func (r *AccountRepository) PlateOwner(ctx context.Context, plate string) (*models.Account, error) {
	owner, err := r.client.Get(ctx, plateIndexKey(plate)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, transient(err)
	}
	if err == nil {
		raw, err := r.client.Get(ctx, owner).Result()
		if err == nil {
			var acc models.Account
			if err := json.Unmarshal([]byte(raw), &acc); err != nil {
				return nil, fmt.Errorf("account %s: decode: %w", owner, err)
			}
			if acc.HasPlate(plate) {
				return &acc, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			return nil, transient(err)
		}
		// Dangling index entry; fall through to the scan.
	}
	return r.scanPlateOwner(ctx, plate)
}

func (r *AccountRepository) scanPlateOwner(ctx context.Context, plate string) (*models.Account, error) {
	iter := r.client.Scan(ctx, 0, accountKeyPrefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := r.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, transient(err)
		}
		var acc models.Account
		if err := json.Unmarshal([]byte(raw), &acc); err != nil {
			continue
		}
		if acc.HasPlate(plate) {
			return &acc, nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, transient(err)
	}
	return nil, ErrPlateNotFound
}

// Upsert appends the plate to the account keyed by acc.Email, creating the
// record on first registration. The uniqueness preconditions are re-checked
// under WATCH so a concurrent registration of the same plate aborts instead
// of writing a duplicate.
func (r *AccountRepository) Upsert(ctx context.Context, acc *models.Account, newPlate string) error {
	primary := accountKey(acc.Email)
	legacy := legacyAccountKey(acc.Email)
	indexKey := plateIndexKey(newPlate)

	watched := []string{primary, indexKey}
	if legacy != primary {
		watched = append(watched, legacy)
	}

	txf := func(tx *redis.Tx) error {
		owner, err := tx.Get(ctx, indexKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil && owner != primary && owner != legacy {
			return ErrPlateTaken
		}

		existing, existingKey, err := getAccount(ctx, tx, acc.Email)
		if err != nil && !errors.Is(err, ErrAccountNotFound) {
			return err
		}

		record := models.Account{
			Name:   acc.Name,
			Phone:  acc.Phone,
			Email:  acc.Email,
			Plates: []string{newPlate},
		}
		if existing != nil {
			if existing.HasPlate(newPlate) {
				return ErrPlateListed
			}
			record = *existing
			record.Plates = append(record.Plates, newPlate)
		}

		payload, err := json.Marshal(&record)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, primary, payload, 0)
			pipe.Set(ctx, indexKey, primary, 0)
			if existingKey == legacy && legacy != primary {
				// Migrate legacy-keyed records on write.
				pipe.Del(ctx, legacy)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < txRetries; attempt++ {
		err := r.client.Watch(ctx, txf, watched...)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, ErrPlateTaken), errors.Is(err, ErrPlateListed):
			return err
		default:
			return transient(err)
		}
	}
	return transient(redis.TxFailedErr)
}

func transient(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// keySuffix trims a namespace prefix off a full store key.
func keySuffix(key, prefix string) string {
	return strings.TrimPrefix(key, prefix)
}
