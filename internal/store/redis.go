package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the snapshot as a JSON string and the session history as
// a list, both written in one MULTI/EXEC.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "strategy"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (r *RedisStore) snapshotKey(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

func (r *RedisStore) sessionsKey(id string) string {
	return fmt.Sprintf("%s:%s:sessions", r.prefix, id)
}

func (r *RedisStore) Load(ctx context.Context, id string) (Record, error) {
	encoded, err := r.rdb.Get(ctx, r.snapshotKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("redis get snapshot: %w", err)
	}

	record := Record{ID: id}
	if err := json.Unmarshal(encoded, &record.Strategy); err != nil {
		return Record{}, fmt.Errorf("decode snapshot: %w", err)
	}

	entries, err := r.rdb.LRange(ctx, r.sessionsKey(id), 0, -1).Result()
	if err != nil {
		return Record{}, fmt.Errorf("redis get sessions: %w", err)
	}
	record.Sessions = make([]Session, 0, len(entries))
	for _, entry := range entries {
		var session Session
		if err := json.Unmarshal([]byte(entry), &session); err != nil {
			return Record{}, fmt.Errorf("decode session: %w", err)
		}
		record.Sessions = append(record.Sessions, session)
	}
	return record, nil
}

func (r *RedisStore) Upsert(ctx context.Context, id string, snapshot Snapshot, session Session) error {
	encodedSnapshot, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	encodedSession, err := json.Marshal(session)
	if err != nil {
		return err
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.snapshotKey(id), encodedSnapshot, 0)
		pipe.RPush(ctx, r.sessionsKey(id), encodedSession)
		return nil
	})
	if err != nil {
		slog.Error("redis upsert failed", "strategy_id", id, "error", err)
		return fmt.Errorf("redis upsert: %w", err)
	}
	return nil
}
