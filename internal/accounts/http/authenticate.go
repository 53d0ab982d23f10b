package http

import (
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/accountsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

type AuthenticateHandler struct {
	Directory *service.Directory
}

// ServeHTTP checks a username/password pair
//
//	@Summary		Authenticate
//	@Description	Verifies a username and password. Wrong credentials are a 200 with authorised=false;
//	@Description	an unknown username and a wrong password are indistinguishable.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		accountsdk.AuthenticateRequest	true	"Credentials"
//	@Success		200		{object}	accountsdk.AuthenticateResponse	"authorised true or false"
//	@Failure		400		{object}	accountsdk.ErrorResponse			"Malformed body"
//	@Failure		500		{object}	accountsdk.ErrorResponse			"Internal server error"
//	@Router			/api/user/authenticate [post].
func (h *AuthenticateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req accountsdk.AuthenticateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Directory.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accountsdk.AuthenticateResponse{Authorised: res.Authorised})
}
