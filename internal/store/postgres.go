package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createStrategiesPG = `
    CREATE TABLE IF NOT EXISTS strategies (
        id            TEXT PRIMARY KEY,
        strategy_data JSONB NOT NULL,
        sessions      JSONB NOT NULL DEFAULT '[]'::jsonb,
        updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
    )`

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createStrategiesPG); err != nil {
		return fmt.Errorf("create strategies table: %w", err)
	}
	return nil
}

func (p *PostgresStore) Load(ctx context.Context, id string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var snapshot, sessions []byte
	err := p.db.QueryRow(ctx, `
        SELECT strategy_data, sessions
        FROM strategies
        WHERE id = $1
    `, id).Scan(&snapshot, &sessions)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("select strategy: %w", err)
	}
	return decodeRecord(id, snapshot, sessions)
}

// Upsert runs without its own deadline; the caller's ctx bounds it.
func (p *PostgresStore) Upsert(ctx context.Context, id string, snapshot Snapshot, session Session) error {
	encodedSnapshot, encodedSession, err := encodeUpsert(snapshot, session)
	if err != nil {
		return err
	}

	const upsertStrategySQL = `
        INSERT INTO strategies (id, strategy_data, sessions, updated_at)
        VALUES ($1, $2::jsonb, jsonb_build_array($3::jsonb), now())
        ON CONFLICT (id) DO UPDATE SET
            strategy_data = EXCLUDED.strategy_data,
            sessions      = strategies.sessions || EXCLUDED.sessions,
            updated_at    = EXCLUDED.updated_at`
	if _, err := p.db.Exec(ctx, upsertStrategySQL, id, string(encodedSnapshot), string(encodedSession)); err != nil {
		slog.Error("postgres upsert failed", "strategy_id", id, "error", err)
		return fmt.Errorf("upsert strategy: %w", err)
	}
	return nil
}

func encodeUpsert(snapshot Snapshot, session Session) ([]byte, []byte, error) {
	encodedSnapshot, err := json.Marshal(snapshot)
	if err != nil {
		return nil, nil, fmt.Errorf("encode snapshot: %w", err)
	}
	encodedSession, err := json.Marshal(session)
	if err != nil {
		return nil, nil, fmt.Errorf("encode session: %w", err)
	}
	return encodedSnapshot, encodedSession, nil
}

func decodeRecord(id string, snapshot, sessions []byte) (Record, error) {
	record := Record{ID: id}
	if err := json.Unmarshal(snapshot, &record.Strategy); err != nil {
		return Record{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if len(sessions) > 0 {
		if err := json.Unmarshal(sessions, &record.Sessions); err != nil {
			return Record{}, fmt.Errorf("decode sessions: %w", err)
		}
	}
	if record.Sessions == nil {
		record.Sessions = []Session{}
	}
	return record, nil
}
