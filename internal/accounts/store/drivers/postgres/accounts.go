package postgres

import (
	"context"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

const accountColumns = `id, name, username, password_digest, created_at, updated_at`

type accountsRepo struct {
	db   dbtx
	lock bool
}

func (r *accountsRepo) forUpdate() string {
	if r.lock {
		return ` FOR UPDATE`
	}
	return ""
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id int64) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`+r.forUpdate(), id)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`+r.forUpdate(), username)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) InsertAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO accounts (name, username, password_digest, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		a.Name, a.Username, a.PasswordDigest, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	if err := row.Scan(&a.ID); err != nil {
		return domain.Account{}, mapConstraint(err)
	}
	return a, nil
}

func (r *accountsRepo) SaveAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE accounts
		 SET name = $1, password_digest = $2, updated_at = $3
		 WHERE id = $4
		 RETURNING `+accountColumns,
		a.Name, a.PasswordDigest, a.UpdatedAt.UTC(), a.ID,
	)
	saved, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return saved, nil
}

func (r *accountsRepo) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *accountsRepo) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n)
	return n, err
}

var _ store.Accounts = (*accountsRepo)(nil)
