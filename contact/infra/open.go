package infra

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"contact-stream/contact/domain"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const (
	selectColumns = "id, name, email, message, created_at"
	// DefaultQueryTimeout limita cada ida ao banco quando o chamador não define outro.
	DefaultQueryTimeout = 10 * time.Second
)

type Options struct {
	Logger       *slog.Logger
	QueryTimeout time.Duration
	MaxOpenConns int
	MaxIdleConns int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = DefaultQueryTimeout
	}
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 10
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = 5
	}
	return o
}

// Open abre o Store indicado pelo esquema da URL e garante o schema.
//
//	postgres://... ou postgresql://...  -> PostgresStore
//	sqlite:<caminho> ou sqlite::memory:  -> SQLiteStore
func Open(ctx context.Context, databaseURL string, opts Options) (domain.Store, error) {
	raw := strings.TrimSpace(databaseURL)
	switch {
	case raw == "":
		return nil, fmt.Errorf("database url is required")
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		dsn, err := PostgresDSN(raw)
		if err != nil {
			return nil, err
		}
		store, err := OpenPostgres(ctx, dsn, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	case strings.HasPrefix(raw, "sqlite:"):
		path := strings.TrimPrefix(strings.TrimPrefix(raw, "sqlite:"), "//")
		store, err := OpenSQLite(ctx, path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database url scheme (want postgres:// or sqlite:)")
	}
}

// PostgresDSN aplica a política de TLS quando a URL não define sslmode:
// hosts locais ficam sem TLS e os demais usam "require" (criptografa sem
// verificar o certificado, como os bancos gerenciados costumam exigir).
func PostgresDSN(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid postgres url: %w", err)
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		if isLocalHost(u.Hostname()) {
			q.Set("sslmode", "disable")
		} else {
			q.Set("sslmode", "require")
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func isLocalHost(host string) bool {
	if host == "" || strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func readSchema(name string) (string, error) {
	b, err := schemaFS.ReadFile("schema/" + name)
	if err != nil {
		return "", fmt.Errorf("read schema %s: %w", name, err)
	}
	return string(b), nil
}

// queryContext desacopla a consulta do cancelamento do cliente: depois de enviada
// ela termina (ou falha) sozinha, limitada apenas pelo timeout.
func queryContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
