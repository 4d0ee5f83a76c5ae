package infra

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"contact-stream/contact/domain"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/samber/lo"
)

// PostgresStore implementa domain.Store sobre PostgreSQL.
type PostgresStore struct {
	db      *sql.DB
	log     *slog.Logger
	timeout time.Duration
}

// OpenPostgres conecta, verifica a conexão e cria a tabela se preciso.
func OpenPostgres(ctx context.Context, dsn string, opts Options) (*PostgresStore, error) {
	opts = opts.withDefaults()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &PostgresStore{db: db, log: opts.Logger, timeout: opts.QueryTimeout}

	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}
	s.log.Info("Database ready", "driver", "postgres")
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema, err := readSchema("postgres.sql")
	if err != nil {
		return err
	}
	ctx, cancel := queryContext(ctx, s.timeout)
	defer cancel()
	_, err = s.db.ExecContext(ctx, schema)
	return err
}

func (s *PostgresStore) Insert(ctx context.Context, f domain.Fields) (domain.Contact, error) {
	ctx, cancel := queryContext(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO contact_messages (name, email, message)
		 VALUES ($1, $2, $3)
		 RETURNING `+selectColumns,
		f.Name, f.Email, f.Message,
	)
	var c domain.Contact
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.CreatedAt); err != nil {
		return domain.Contact{}, domain.WrapStorage("insert", err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]domain.Contact, error) {
	ctx, cancel := queryContext(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+`
		 FROM contact_messages
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		domain.ClampLimit(limit),
	)
	if err != nil {
		return nil, domain.WrapStorage("list", err)
	}
	defer rows.Close()

	out := make([]domain.Contact, 0)
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &c.CreatedAt); err != nil {
			return nil, domain.WrapStorage("list", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage("list", err)
	}
	return lo.Map(out, func(c domain.Contact, _ int) domain.Contact {
		c.CreatedAt = c.CreatedAt.UTC()
		return c
	}), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := queryContext(ctx, s.timeout)
	defer cancel()
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return domain.WrapStorage("ping", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
