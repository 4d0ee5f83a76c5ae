package infra

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"contact-stream/contact/domain"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

const memoryPath = ":memory:"

// SQLiteStore implementa domain.Store sobre SQLite. Usado em desenvolvimento,
// nos testes e no exemplo embutido; created_at é guardado como texto ISO.
type SQLiteStore struct {
	db      *sql.DB
	log     *slog.Logger
	timeout time.Duration
}

// OpenSQLite abre (ou cria) o arquivo em path. Use ":memory:" para um banco
// isolado que vive enquanto o store estiver aberto.
func OpenSQLite(ctx context.Context, path string, opts Options) (*SQLiteStore, error) {
	opts = opts.withDefaults()
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := memoryPath
	if path != memoryPath {
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// uma única conexão: com :memory: cada conexão nova seria outro banco,
	// e com arquivo evita SQLITE_BUSY entre escritores do mesmo processo.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db, log: opts.Logger, timeout: opts.QueryTimeout}

	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	s.log.Info("Database ready", "driver", "sqlite", "path", path)
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema, err := readSchema("sqlite.sql")
	if err != nil {
		return err
	}
	ctx, cancel := queryContext(ctx, s.timeout)
	defer cancel()
	_, err = s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStore) Insert(ctx context.Context, f domain.Fields) (domain.Contact, error) {
	ctx, cancel := queryContext(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO contact_messages (name, email, message)
		 VALUES (?, ?, ?)
		 RETURNING `+selectColumns,
		f.Name, f.Email, f.Message,
	)
	c, err := scanSQLiteContact(row)
	if err != nil {
		return domain.Contact{}, domain.WrapStorage("insert", err)
	}
	return c, nil
}

func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]domain.Contact, error) {
	ctx, cancel := queryContext(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+`
		 FROM contact_messages
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		domain.ClampLimit(limit),
	)
	if err != nil {
		return nil, domain.WrapStorage("list", err)
	}
	defer rows.Close()

	out := make([]domain.Contact, 0)
	for rows.Next() {
		c, err := scanSQLiteContact(rows)
		if err != nil {
			return nil, domain.WrapStorage("list", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage("list", err)
	}
	return out, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	ctx, cancel := queryContext(ctx, s.timeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return domain.WrapStorage("ping", err)
	}
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return domain.WrapStorage("ping", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteContact(r rowScanner) (domain.Contact, error) {
	var (
		c         domain.Contact
		createdAt string
	)
	if err := r.Scan(&c.ID, &c.Name, &c.Email, &c.Message, &createdAt); err != nil {
		return domain.Contact{}, err
	}
	at, err := domain.ParseTimestamp(createdAt)
	if err != nil {
		return domain.Contact{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	c.CreatedAt = at
	return c, nil
}
