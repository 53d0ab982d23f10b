package accountsdk

import (
	"time"

	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

// ErrorResponse is the body of every error response.
type ErrorResponse = httpx.ErrorBody

// Account is the public view of an account. The password digest is never
// returned.
type Account struct {
	ID       int64     `json:"id" example:"1"`
	Name     string    `json:"name" example:"Alice Smith"`
	Username string    `json:"username" example:"alice"`
	Created  time.Time `json:"created" example:"2024-01-02T03:04:05.000006Z"`
	Updated  time.Time `json:"updated" example:"2024-01-02T03:04:05.000006Z"`
}

// ListAccountsResponse is returned by GET /api/user.
type ListAccountsResponse struct {
	Total int       `json:"total" example:"1"`
	Items []Account `json:"items"`
}

// CreateAccountRequest is the body of POST /api/user. Missing username or
// password is reported by the service after the username check, so those
// fields carry no required tag.
type CreateAccountRequest struct {
	Name     string `json:"name" validate:"max=255" example:"Alice Smith"`
	Username string `json:"username" validate:"max=255" example:"alice"`
	Password string `json:"password" validate:"max=1024" example:"secret1"`
}

// UpdateAccountRequest is the body of PUT /api/user/{id}. Omitted fields are
// left unchanged; username is accepted but never applied.
type UpdateAccountRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=255" example:"Alice Jones"`
	Username *string `json:"username,omitempty" validate:"omitempty,max=255" example:"alice"`
	Password *string `json:"password,omitempty" validate:"omitempty,max=1024" example:"secret2"`
}

// AuthenticateRequest is the body of POST /api/user/authenticate.
type AuthenticateRequest struct {
	Username string `json:"username" validate:"max=255" example:"alice"`
	Password string `json:"password" validate:"max=1024" example:"secret1"`
}

// AuthenticateResponse reports whether the credentials matched.
type AuthenticateResponse struct {
	Authorised bool `json:"authorised" example:"true"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime" example:"1h2m3s"`
	Version string        `json:"version" example:"0.1.0"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database" example:"ok"`
}
