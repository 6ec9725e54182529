package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

const createStrategiesMySQL = `
	CREATE TABLE IF NOT EXISTS strategies (
		id            VARCHAR(64) NOT NULL PRIMARY KEY,
		strategy_data JSON NOT NULL,
		sessions      JSON NOT NULL,
		updated_at    DATETIME NOT NULL
	)`

// MySQLStore expects a *sql.DB opened with the "mysql" driver and
// parseTime=true.
type MySQLStore struct {
	DB *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{DB: db}
}

func (m *MySQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := m.DB.ExecContext(ctx, createStrategiesMySQL); err != nil {
		return fmt.Errorf("create strategies table: %w", err)
	}
	return nil
}

func (m *MySQLStore) Load(ctx context.Context, id string) (Record, error) {
	var snapshot, sessions []byte
	err := m.DB.QueryRowContext(ctx, `
		SELECT s.strategy_data, s.sessions
		FROM strategies s WHERE s.id = ?
	`, id).Scan(&snapshot, &sessions)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("select strategy: %w", err)
	}
	return decodeRecord(id, snapshot, sessions)
}

func (m *MySQLStore) Upsert(ctx context.Context, id string, snapshot Snapshot, session Session) error {
	encodedSnapshot, encodedSession, err := encodeUpsert(snapshot, session)
	if err != nil {
		return err
	}

	_, err = m.DB.ExecContext(ctx, `
		INSERT INTO strategies (id, strategy_data, sessions, updated_at)
		VALUES (?, CAST(? AS JSON), JSON_ARRAY(CAST(? AS JSON)), UTC_TIMESTAMP())
		ON DUPLICATE KEY UPDATE
			strategy_data = CAST(? AS JSON),
			sessions = JSON_ARRAY_APPEND(sessions, '$', CAST(? AS JSON)),
			updated_at = UTC_TIMESTAMP()
	`,
		id,
		string(encodedSnapshot),
		string(encodedSession),
		string(encodedSnapshot),
		string(encodedSession),
	)
	if err != nil {
		slog.Error("mysql upsert failed", "strategy_id", id, "error", err)
		return fmt.Errorf("upsert strategy: %w", err)
	}
	return nil
}
