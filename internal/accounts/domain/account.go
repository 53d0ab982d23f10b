package domain

import "time"

// Account is the canonical stored record. PasswordDigest never leaves the
// directory; callers receive an AccountView.
type Account struct {
	ID             int64
	Name           string
	Username       string // unique, case-sensitive, immutable
	PasswordDigest string // argon2id or bcrypt encoded
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// View returns the public view of the account.
func (a Account) View() AccountView {
	return AccountView{
		ID:        a.ID,
		Name:      a.Name,
		Username:  a.Username,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountView is the subset of Account allowed to cross the service boundary.
type AccountView struct {
	ID        int64
	Name      string
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount carries the caller-supplied fields of a create request.
type NewAccount struct {
	Name     string
	Username string
	Password string // plaintext
}

// AccountPatch is a partial update. Nil fields are left unchanged.
type AccountPatch struct {
	Name     *string
	Username *string // accepted for compatibility, never applied
	Password *string // plaintext; nil or empty keeps the current digest
}

// Apply merges the patch over a, leaving the password digest to the caller.
func (p AccountPatch) Apply(a *Account) {
	if p.Name != nil {
		a.Name = *p.Name
	}
}

// HasPassword reports whether the patch carries a new password.
func (p AccountPatch) HasPassword() bool {
	return p.Password != nil && *p.Password != ""
}

// AuthResult is the outcome of a credential check. A wrong username and a
// wrong password produce the same zero value.
type AuthResult struct {
	Authorised bool
}
