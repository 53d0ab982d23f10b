package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk on fire")

	tests := []struct {
		name string
		err  error
		kind Kind
		is   error
		msg  string
	}{
		{"not found", NotFound("accounts.get", "account 7 not found"), KindNotFound, ErrNotFound, "account 7 not found"},
		{"conflict", Conflict("accounts.create", "username already exists"), KindConflict, ErrConflict, "username already exists"},
		{"invalid input", InvalidInput("accounts.create", "password required"), KindInvalidInput, ErrInvalidInput, "password required"},
		{"infrastructure", Infrastructure("accounts.list", cause), KindInfrastructure, ErrInfrastructure, "infrastructure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.kind, KindOf(tt.err))
			require.ErrorIs(t, tt.err, tt.is)
			require.Equal(t, tt.msg, MessageOf(tt.err))

			// Kinds never match each other.
			for _, other := range []error{ErrNotFound, ErrConflict, ErrInvalidInput, ErrInfrastructure} {
				if other != tt.is {
					require.NotErrorIs(t, tt.err, other)
				}
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := fmt.Errorf("handler: %w", Infrastructure("accounts.get", cause))

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrInfrastructure)
	require.Equal(t, KindInfrastructure, KindOf(err))
	require.Equal(t, "handler: accounts.get: connection refused", err.Error())

	require.Nil(t, Infrastructure("accounts.get", nil))
	require.Equal(t, KindUnknown, KindOf(cause))
	require.Equal(t, "unknown", MessageOf(cause))
}

func TestAccountPatchApply(t *testing.T) {
	t.Parallel()

	name := "Alice Liddell"
	username := "mallory"
	acc := Account{ID: 1, Name: "Alice", Username: "alice", PasswordDigest: "digest"}

	AccountPatch{Name: &name, Username: &username}.Apply(&acc)
	require.Equal(t, "Alice Liddell", acc.Name)
	require.Equal(t, "alice", acc.Username, "username is immutable")
	require.Equal(t, "digest", acc.PasswordDigest)

	AccountPatch{}.Apply(&acc)
	require.Equal(t, "Alice Liddell", acc.Name, "nil name keeps the current value")

	empty := ""
	AccountPatch{Name: &empty}.Apply(&acc)
	require.Empty(t, acc.Name, "an explicit empty name is applied")

	require.False(t, AccountPatch{Password: &empty}.HasPassword())
	pw := "pw2"
	require.True(t, AccountPatch{Password: &pw}.HasPassword())
}

func TestAccountView(t *testing.T) {
	t.Parallel()

	acc := Account{ID: 3, Name: "Bob", Username: "bob", PasswordDigest: "secret-digest"}
	view := acc.View()
	require.Equal(t, int64(3), view.ID)
	require.Equal(t, "bob", view.Username)
	require.NotContains(t, fmt.Sprintf("%+v", view), "secret-digest")
}
