package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// timingGuardSecret is hashed once to produce the digest that unknown
// usernames are verified against. Its value is irrelevant: a match on that
// path is discarded.
const timingGuardSecret = "account-directory-timing-guard"

// Directory owns account records. It is a stateless orchestrator over the
// store and the hasher and is safe for concurrent use; it must not be copied
// after first use.
type Directory struct {
	Store  store.Store
	Hasher cryptox.Hasher

	// Now overrides the clock (tests). Defaults to time.Now.
	Now func() time.Time

	guardOnce   sync.Once
	guardDigest string
	guardErr    error
}

// NewDirectory builds a Directory and computes the digest that unknown
// usernames are verified against, so a broken hasher fails at startup
// rather than on the first login.
func NewDirectory(st store.Store, hasher cryptox.Hasher) (*Directory, error) {
	d := &Directory{Store: st, Hasher: hasher}
	if _, err := d.timingGuard(); err != nil {
		return nil, fmt.Errorf("compute timing guard digest: %w", err)
	}
	return d, nil
}

// ListAll returns every account in insertion order.
func (d *Directory) ListAll(ctx context.Context) ([]domain.AccountView, error) {
	const op = "accounts.list"

	accounts, err := d.Store.Accounts().ListAccounts(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list accounts", slog.Any("error", err))
		return nil, domain.Infrastructure(op, err)
	}

	views := make([]domain.AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, a.View())
	}
	return views, nil
}

// GetByID fetches a single account.
func (d *Directory) GetByID(ctx context.Context, id int64) (domain.AccountView, error) {
	const op = "accounts.get"

	acc, err := d.Store.Accounts().GetAccountByID(ctx, id)
	if err != nil {
		return domain.AccountView{}, d.lookupError(ctx, op, id, err)
	}
	return acc.View(), nil
}

// Create registers a new account. The checks run in this order:
//  1. the username must be free (Conflict)
//  2. a password must be supplied (InvalidInput)
//  3. a username must be supplied (InvalidInput)
//
// The store's uniqueness constraint backs up step 1, so a concurrent create
// that wins the race still surfaces here as Conflict.
func (d *Directory) Create(ctx context.Context, in domain.NewAccount) (domain.AccountView, error) {
	const op = "accounts.create"
	log := slogx.FromContext(ctx)

	_, err := d.Store.Accounts().GetAccountByUsername(ctx, in.Username)
	if err == nil {
		log.Warn("create rejected, username taken", slog.String("username", in.Username))
		return domain.AccountView{}, domain.Conflict(op, "username already exists")
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to check username availability", slog.Any("error", err))
		return domain.AccountView{}, domain.Infrastructure(op, err)
	}

	if in.Password == "" {
		return domain.AccountView{}, domain.InvalidInput(op, "password required")
	}
	if in.Username == "" {
		return domain.AccountView{}, domain.InvalidInput(op, "username required")
	}

	digest, err := d.hash(op, in.Password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.AccountView{}, err
	}

	now := d.now()
	acc, err := d.Store.Accounts().InsertAccount(ctx, domain.Account{
		Name:           in.Name,
		Username:       in.Username,
		PasswordDigest: digest,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("create lost username race", slog.String("username", in.Username))
			return domain.AccountView{}, domain.Conflict(op, "username already exists")
		}
		log.Error("failed to insert account", slog.Any("error", err))
		return domain.AccountView{}, domain.Infrastructure(op, err)
	}

	log.Info("account created",
		slog.Int64("account_id", acc.ID),
		slog.String("username", acc.Username),
	)
	return acc.View(), nil
}

// Update applies a partial update. Omitted fields keep their value, the
// username never changes, and updated_at always moves forward.
func (d *Directory) Update(ctx context.Context, id int64, patch domain.AccountPatch) (domain.AccountView, error) {
	const op = "accounts.update"
	log := slogx.FromContext(ctx)

	// Existence is checked before hashing so unknown ids stay cheap.
	if _, err := d.Store.Accounts().GetAccountByID(ctx, id); err != nil {
		return domain.AccountView{}, d.lookupError(ctx, op, id, err)
	}

	var digest string
	if patch.HasPassword() {
		var err error
		digest, err = d.hash(op, *patch.Password)
		if err != nil {
			log.Error("failed to hash password", slog.Int64("account_id", id), slog.Any("error", err))
			return domain.AccountView{}, err
		}
	}

	var saved domain.Account
	err := d.Store.WithTx(ctx, func(tx store.Tx) error {
		acc, err := tx.Accounts().GetAccountByID(ctx, id)
		if err != nil {
			return d.lookupError(ctx, op, id, err)
		}

		if digest != "" {
			acc.PasswordDigest = digest
		}
		patch.Apply(&acc)
		acc.UpdatedAt = d.after(acc.UpdatedAt)

		saved, err = tx.Accounts().SaveAccount(ctx, acc)
		if err != nil {
			return d.lookupError(ctx, op, id, err)
		}
		return nil
	})
	if err != nil {
		if domain.KindOf(err) != domain.KindUnknown {
			return domain.AccountView{}, err
		}
		log.Error("failed to update account", slog.Int64("account_id", id), slog.Any("error", err))
		return domain.AccountView{}, domain.Infrastructure(op, err)
	}

	log.Info("account updated",
		slog.Int64("account_id", saved.ID),
		slog.Bool("password_changed", digest != ""),
	)
	return saved.View(), nil
}

// Authenticate checks a username/password pair. Wrong credentials are not
// an error; only infrastructure failures are. Unknown usernames still pay
// for one digest verification so both failure paths take the same time.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (domain.AuthResult, error) {
	const op = "accounts.authenticate"
	log := slogx.FromContext(ctx)

	acc, err := d.Store.Accounts().GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			guard, err := d.timingGuard()
			if err != nil {
				log.Error("timing guard digest unavailable", slog.Any("error", err))
				return domain.AuthResult{}, domain.Infrastructure(op, err)
			}
			_ = d.Hasher.Verify(password, guard)
			return domain.AuthResult{Authorised: false}, nil
		}
		log.Error("failed to load account for authentication", slog.Any("error", err))
		return domain.AuthResult{}, domain.Infrastructure(op, err)
	}

	if !d.Hasher.Verify(password, acc.PasswordDigest) {
		return domain.AuthResult{Authorised: false}, nil
	}

	if d.Hasher.NeedsRehash(acc.PasswordDigest) {
		d.upgradeDigest(ctx, acc, password)
	}

	return domain.AuthResult{Authorised: true}, nil
}

// upgradeDigest re-hashes a verified password with the current algorithm
// and parameters. Failures are logged and otherwise ignored: the login has
// already succeeded.
func (d *Directory) upgradeDigest(ctx context.Context, acc domain.Account, password string) {
	log := slogx.FromContext(ctx).With(slog.Int64("account_id", acc.ID))

	digest, err := d.Hasher.Hash(password)
	if err != nil {
		log.Warn("digest upgrade skipped", slog.Any("error", err))
		return
	}

	err = d.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Accounts().GetAccountByID(ctx, acc.ID)
		if err != nil {
			return err
		}
		// A concurrent password change wins over the upgrade.
		if current.PasswordDigest != acc.PasswordDigest {
			return nil
		}
		current.PasswordDigest = digest
		current.UpdatedAt = d.after(current.UpdatedAt)
		_, err = tx.Accounts().SaveAccount(ctx, current)
		return err
	})
	if err != nil {
		log.Warn("digest upgrade failed", slog.Any("error", err))
		return
	}
	log.Info("password digest upgraded", slog.String("algorithm", cryptox.DigestAlgorithm(digest)))
}

func (d *Directory) hash(op, password string) (string, error) {
	digest, err := d.Hasher.Hash(password)
	switch {
	case err == nil:
		return digest, nil
	case errors.Is(err, cryptox.ErrEmptyPassword):
		return "", domain.InvalidInput(op, "password required")
	case errors.Is(err, cryptox.ErrPasswordTooLong):
		return "", domain.InvalidInput(op, "password too long")
	default:
		return "", domain.Infrastructure(op, err)
	}
}

func (d *Directory) lookupError(ctx context.Context, op string, id int64, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return domain.NotFound(op, fmt.Sprintf("account with id %d not found", id))
	}
	slogx.FromContext(ctx).Error("failed to load account",
		slog.Int64("account_id", id),
		slog.Any("error", err),
	)
	return domain.Infrastructure(op, err)
}

// timingGuard hashes timingGuardSecret with the primary algorithm. Digests
// of any other algorithm are upgraded on their first successful login, so
// steady state is one primary-algorithm verify on every failure path.
func (d *Directory) timingGuard() (string, error) {
	d.guardOnce.Do(func() {
		d.guardDigest, d.guardErr = d.Hasher.Hash(timingGuardSecret)
		if d.guardErr == nil && d.guardDigest == "" {
			d.guardErr = errors.New("hasher returned an empty digest")
		}
	})
	return d.guardDigest, d.guardErr
}

// now returns the current UTC time at the microsecond precision every
// driver can round-trip.
func (d *Directory) now() time.Time {
	clock := d.Now
	if clock == nil {
		clock = time.Now
	}
	return clock().UTC().Truncate(time.Microsecond)
}

// after returns a timestamp strictly later than prev.
func (d *Directory) after(prev time.Time) time.Time {
	now := d.now()
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}
