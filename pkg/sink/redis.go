package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"behancesync/pkg/config"
	errs "behancesync/pkg/errors"
	"behancesync/pkg/record"
)

const connectionTimeout = 5 * time.Second

// Redis stores each record as a hash {digest, body} under
// <prefix>:record:<type>:<id> and indexes ids in the set <prefix>:records:<type>.
type Redis struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to the configured server and verifies it answers
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedis(client, cfg.Prefix), nil
}

// NewRedis wraps an existing client
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "behancesync"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) recordKey(recordType, id string) string {
	return r.prefix + ":record:" + recordType + ":" + id
}

func (r *Redis) indexKey(recordType string) string {
	return r.prefix + ":records:" + recordType
}

// CreateRecord writes the record unless the stored digest already matches.
// The compare and the write run in one WATCH transaction.
func (r *Redis) CreateRecord(ctx context.Context, rec *record.Record) (Status, error) {
	if err := validate(rec); err != nil {
		return "", err
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrorTypeStore, "failed to encode record "+key(rec))
	}

	k := r.recordKey(rec.Internal.Type, rec.ID)
	var status Status

	txf := func(tx *redis.Tx) error {
		digest, err := tx.HGet(ctx, k, "digest").Result()
		switch {
		case errors.Is(err, redis.Nil):
			status = StatusCreated
		case err != nil:
			return err
		case digest == rec.Internal.ContentDigest:
			status = StatusUnchanged
			return nil
		default:
			status = StatusUpdated
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, k, "digest", rec.Internal.ContentDigest, "body", string(body))
			pipe.SAdd(ctx, r.indexKey(rec.Internal.Type), rec.ID)
			return nil
		})
		return err
	}

	if err := r.client.Watch(ctx, txf, k); err != nil {
		return "", errs.Wrap(err, errs.ErrorTypeStore, "failed to store record "+key(rec))
	}
	return status, nil
}

// List returns records of recordType ordered by id; "" lists both known types
func (r *Redis) List(ctx context.Context, recordType string) ([]*record.Record, error) {
	types := []string{recordType}
	if recordType == "" {
		types = []string{record.TypeProject, record.TypeUser}
	}

	var out []*record.Record
	for _, t := range types {
		ids, err := r.client.SMembers(ctx, r.indexKey(t)).Result()
		if err != nil {
			return nil, errs.Wrap(err, errs.ErrorTypeStore, "failed to list "+t+" records")
		}
		for _, id := range ids {
			body, err := r.client.HGet(ctx, r.recordKey(t, id), "body").Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return nil, errs.Wrap(err, errs.ErrorTypeStore, "failed to read record "+t+"/"+id)
			}
			var rec record.Record
			if err := json.Unmarshal([]byte(body), &rec); err != nil {
				return nil, errs.Wrap(err, errs.ErrorTypeStore, "corrupt record "+t+"/"+id)
			}
			out = append(out, &rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
