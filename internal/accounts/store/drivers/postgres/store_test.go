package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgUser     = "accounts"
	pgPassword = "accounts"
	pgDatabase = "accounts"
)

// startPostgres starts a throwaway Postgres container and returns its DSN.
func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres tests need docker")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     pgUser,
				"POSTGRES_PASSWORD": pgPassword,
				"POSTGRES_DB":       pgDatabase,
			},
			// The server restarts once after initdb.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		pgUser, pgPassword, host, port.Port(), pgDatabase)
}

// newTestStore returns a migrated store connected to a fresh container.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(context.Background(), startPostgres(t), Options{MaxOpenConns: 8})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func newAccount(username string) domain.Account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.Account{
		Name:           "Name of " + username,
		Username:       username,
		PasswordDigest: "$argon2id$v=19$m=64,t=1,p=1$c2FsdA$aGFzaA",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestPostgresStore_MigrationsReleaseConnections(t *testing.T) {
	dsn := startPostgres(t)

	s, err := NewStore(context.Background(), dsn, Options{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.ApplyMigrations())

	// With a single pooled connection, any connection still held by the
	// migrator would block these until the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Ping(ctx))
	_, err = s.Accounts().InsertAccount(ctx, newAccount("solo"))
	require.NoError(t, err)
	n, err := s.Accounts().CountAccounts(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, 0, s.db.Stats().InUse)
}

func TestPostgresStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, s.ApplyMigrations())
	})

	t.Run("insert and get", func(t *testing.T) {
		in := newAccount("alice")
		created, err := s.Accounts().InsertAccount(ctx, in)
		require.NoError(t, err)
		require.Positive(t, created.ID)

		got, err := s.Accounts().GetAccountByID(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", got.Username)
		require.Equal(t, in.PasswordDigest, got.PasswordDigest)
		require.True(t, in.CreatedAt.Equal(got.CreatedAt))
		require.Equal(t, time.UTC, got.CreatedAt.Location())

		byName, err := s.Accounts().GetAccountByUsername(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, created.ID, byName.ID)
	})

	t.Run("usernames are case sensitive", func(t *testing.T) {
		_, err := s.Accounts().GetAccountByUsername(ctx, "ALICE")
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Accounts().InsertAccount(ctx, newAccount("ALICE"))
		require.NoError(t, err)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := s.Accounts().InsertAccount(ctx, newAccount("alice"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("concurrent duplicate inserts", func(t *testing.T) {
		const workers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			oks  int
			dups int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Accounts().InsertAccount(ctx, newAccount("racer"))
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					oks++
				} else if errors.Is(err, store.ErrAlreadyExists) {
					dups++
				}
			}()
		}
		wg.Wait()
		require.Equal(t, 1, oks)
		require.Equal(t, workers-1, dups)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.Accounts().GetAccountByID(ctx, 9999)
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Accounts().SaveAccount(ctx, domain.Account{ID: 9999, UpdatedAt: time.Now()})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("save keeps username and created_at", func(t *testing.T) {
		created, err := s.Accounts().InsertAccount(ctx, newAccount("bob"))
		require.NoError(t, err)

		changed := created
		changed.Name = "Robert"
		changed.Username = "mallory"
		changed.PasswordDigest = "$2a$04$digest"
		changed.UpdatedAt = created.UpdatedAt.Add(time.Second)

		saved, err := s.Accounts().SaveAccount(ctx, changed)
		require.NoError(t, err)
		require.Equal(t, "Robert", saved.Name)
		require.Equal(t, "bob", saved.Username)
		require.Equal(t, "$2a$04$digest", saved.PasswordDigest)
		require.True(t, created.CreatedAt.Equal(saved.CreatedAt))
		require.True(t, changed.UpdatedAt.Equal(saved.UpdatedAt))
	})

	t.Run("list in id order", func(t *testing.T) {
		all, err := s.Accounts().ListAccounts(ctx)
		require.NoError(t, err)

		n, err := s.Accounts().CountAccounts(ctx)
		require.NoError(t, err)
		require.Len(t, all, int(n))
		for i := 1; i < len(all); i++ {
			require.Less(t, all[i-1].ID, all[i].ID)
		}
	})

	t.Run("rolled back tx leaves no trace", func(t *testing.T) {
		before, err := s.Accounts().CountAccounts(ctx)
		require.NoError(t, err)

		err = s.WithTx(ctx, func(tx store.Tx) error {
			if _, err := tx.Accounts().InsertAccount(ctx, newAccount("ghost")); err != nil {
				return err
			}
			return store.ErrAlreadyExists
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		after, err := s.Accounts().CountAccounts(ctx)
		require.NoError(t, err)
		require.Equal(t, before, after)
	})

	t.Run("updated_at may not precede created_at", func(t *testing.T) {
		created, err := s.Accounts().InsertAccount(ctx, newAccount("carol"))
		require.NoError(t, err)

		created.UpdatedAt = created.CreatedAt.Add(-time.Hour)
		_, err = s.Accounts().SaveAccount(ctx, created)
		require.Error(t, err)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, s.Ping(ctx))
	})
}
