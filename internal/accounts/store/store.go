package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. Sub-repositories hang off the root so a Tx can
// hand out the same repositories bound to the transaction.
type Store interface {
	Accounts() Accounts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetAccountByID returns ErrNotFound when no account has the id.
	GetAccountByID(ctx context.Context, id int64) (domain.Account, error)

	// GetAccountByUsername is an exact, case-sensitive match.
	GetAccountByUsername(ctx context.Context, username string) (domain.Account, error)

	// InsertAccount stores a new account and returns it with its assigned
	// id. The username uniqueness constraint is enforced here and reported
	// as ErrAlreadyExists.
	InsertAccount(ctx context.Context, a domain.Account) (domain.Account, error)

	// SaveAccount overwrites name, password_digest and updated_at of an
	// existing account. Username and created_at are never written.
	SaveAccount(ctx context.Context, a domain.Account) (domain.Account, error)

	// ListAccounts returns every account in insertion (id) order.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	CountAccounts(ctx context.Context) (int64, error)
}
