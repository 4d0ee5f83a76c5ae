package infra

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"contact-stream/contact/domain"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{Logger: logs.GetLoggerFromLevel(slog.LevelDebug)}
}

func openMemory(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:", testOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_InsertReturnsCanonicalRecord(t *testing.T) {
	req := require.New(t)
	s := openMemory(t)
	ctx := context.Background()

	first, err := s.Insert(ctx, domain.Fields{Name: "Ann", Email: "a@b.co", Message: "hello"})
	req.NoError(err)
	req.Positive(first.ID)
	req.Equal("Ann", first.Name)
	req.Equal("a@b.co", first.Email)
	req.Equal("hello", first.Message)
	req.False(first.CreatedAt.IsZero())
	req.Equal("UTC", first.CreatedAt.Location().String())

	second, err := s.Insert(ctx, domain.Fields{Name: "Bob", Email: "b@c.co", Message: "world"})
	req.NoError(err)
	req.Greater(second.ID, first.ID)
}

func TestSQLiteStore_ListRecentNewestFirst(t *testing.T) {
	req := require.New(t)
	s := openMemory(t)
	ctx := context.Background()

	list, err := s.ListRecent(ctx, 0)
	req.NoError(err)
	req.NotNil(list)
	req.Empty(list)

	var ids []int64
	for i := 0; i < 3; i++ {
		c, err := s.Insert(ctx, domain.Fields{Name: "Ann", Email: "a@b.co", Message: fmt.Sprintf("msg %d", i)})
		req.NoError(err)
		ids = append(ids, c.ID)
	}

	list, err = s.ListRecent(ctx, 0)
	req.NoError(err)
	req.Len(list, 3)
	req.Equal(ids[2], list[0].ID)
	req.Equal(ids[1], list[1].ID)
	req.Equal(ids[0], list[2].ID)

	list, err = s.ListRecent(ctx, 2)
	req.NoError(err)
	req.Len(list, 2)
	req.Equal(ids[2], list[0].ID)
}

func TestSQLiteStore_ListRecentCapsAtDefaultLimit(t *testing.T) {
	req := require.New(t)
	s := openMemory(t)
	ctx := context.Background()

	for i := 0; i < domain.DefaultListLimit+5; i++ {
		_, err := s.Insert(ctx, domain.Fields{Name: "Ann", Email: "a@b.co", Message: "hello"})
		req.NoError(err)
	}

	list, err := s.ListRecent(ctx, 1000)
	req.NoError(err)
	req.Len(list, domain.DefaultListLimit)
	for i := 1; i < len(list); i++ {
		req.Greater(list[i-1].ID, list[i].ID)
	}
}

func TestSQLiteStore_FileSurvivesReopen(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.db")

	s, err := OpenSQLite(ctx, path, testOptions())
	req.NoError(err)
	saved, err := s.Insert(ctx, domain.Fields{Name: "Ann", Email: "a@b.co", Message: "hello"})
	req.NoError(err)
	req.NoError(s.Close())

	s, err = OpenSQLite(ctx, path, testOptions())
	req.NoError(err)
	defer s.Close()

	list, err := s.ListRecent(ctx, 0)
	req.NoError(err)
	req.Len(list, 1)
	req.Equal(saved.ID, list[0].ID)
	req.True(saved.CreatedAt.Equal(list[0].CreatedAt))
}

func TestSQLiteStore_ClosedStoreReturnsStorageError(t *testing.T) {
	req := require.New(t)
	s, err := OpenSQLite(context.Background(), ":memory:", testOptions())
	req.NoError(err)
	req.NoError(s.Close())

	_, err = s.Insert(context.Background(), domain.Fields{Name: "Ann", Email: "a@b.co", Message: "hello"})
	req.True(domain.IsStorage(err))

	req.True(domain.IsStorage(s.Ping(context.Background())))
}

func TestSQLiteStore_InsertIgnoresCallerCancellation(t *testing.T) {
	req := require.New(t)
	s := openMemory(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, err := s.Insert(ctx, domain.Fields{Name: "Ann", Email: "a@b.co", Message: "hello"})
	req.NoError(err)
	req.Positive(c.ID)
}

func TestOpen_PicksBackendFromURL(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	store, err := Open(ctx, "sqlite::memory:", testOptions())
	req.NoError(err)
	req.IsType(&SQLiteStore{}, store)
	req.NoError(store.Ping(ctx))
	req.NoError(store.Close())

	store, err = Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "x.db"), testOptions())
	req.NoError(err)
	req.NoError(store.Close())

	_, err = Open(ctx, "", testOptions())
	req.Error(err)

	_, err = Open(ctx, "mysql://localhost/db", testOptions())
	req.ErrorContains(err, "unsupported")
}
