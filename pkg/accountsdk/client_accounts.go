package accountsdk

import (
	"context"
	"net/http"
	"strconv"
)

// ListAccounts returns every account in creation order.
func (c *SDKClient) ListAccounts(ctx context.Context) (*ListAccountsResponse, error) {
	var out ListAccountsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/user", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) GetAccount(ctx context.Context, id int64) (*Account, error) {
	var out Account
	if err := c.doJSON(ctx, http.MethodGet, "/api/user/"+strconv.FormatInt(id, 10), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) CreateAccount(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	var out Account
	if err := c.doJSON(ctx, http.MethodPost, "/api/user", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) UpdateAccount(ctx context.Context, id int64, req UpdateAccountRequest) (*Account, error) {
	var out Account
	if err := c.doJSON(ctx, http.MethodPut, "/api/user/"+strconv.FormatInt(id, 10), req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Authenticate checks a username/password pair. A mismatch is reported as
// Authorised=false with a nil error.
func (c *SDKClient) Authenticate(ctx context.Context, username, password string) (*AuthenticateResponse, error) {
	var out AuthenticateResponse
	req := AuthenticateRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/user/authenticate", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
