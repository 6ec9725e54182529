package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

type Options struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string
	PostgresDSN   string
	MySQLDSN      string
}

// Open connects the configured backend. The returned close func releases
// the underlying connection.
func Open(ctx context.Context, opts Options) (Store, func() error, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), func() error { return nil }, nil
	case BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       0,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisStore(rdb, opts.RedisPrefix), rdb.Close, nil
	case BackendPostgres:
		pool, err := pgxpool.New(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		pg := NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pg, func() error { pool.Close(); return nil }, nil
	case BackendMySQL:
		db, err := sql.Open("mysql", opts.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("mysql open: %w", err)
		}
		my := NewMySQLStore(db)
		if err := my.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return my, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store backend: %s", opts.Backend)
	}
}
