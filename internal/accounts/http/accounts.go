package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/accountsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

type AccountsHandler struct {
	Directory *service.Directory
}

// HandleList lists every account
//
//	@Summary		List accounts
//	@Description	Returns every account in creation order. Password digests are never included.
//	@Tags			Accounts
//	@Produce		json
//	@Success		200	{object}	accountsdk.ListAccountsResponse	"total and items"
//	@Failure		500	{object}	accountsdk.ErrorResponse		"Internal server error"
//	@Router			/api/user [get].
func (h *AccountsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.Directory.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := accountsdk.ListAccountsResponse{
		Total: len(views),
		Items: make([]accountsdk.Account, len(views)),
	}
	for i, v := range views {
		resp.Items[i] = toAccount(v)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet returns a single account
//
//	@Summary		Get account
//	@Description	Returns the account with the given id.
//	@Tags			Accounts
//	@Produce		json
//	@Param			id	path		int						true	"Account ID"
//	@Success		200	{object}	accountsdk.Account		"The account"
//	@Failure		400	{object}	accountsdk.ErrorResponse	"Malformed id"
//	@Failure		404	{object}	accountsdk.ErrorResponse	"No account with this id"
//	@Failure		500	{object}	accountsdk.ErrorResponse	"Internal server error"
//	@Router			/api/user/{id} [get].
func (h *AccountsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	view, err := h.Directory.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAccount(view))
}

// HandleCreate registers an account
//
//	@Summary		Create account
//	@Description	Creates an account. The password is hashed before it is stored.
//	@Description	A taken username is reported before missing fields.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		accountsdk.CreateAccountRequest	true	"New account"
//	@Success		201		{object}	accountsdk.Account				"The created account"
//	@Failure		400		{object}	accountsdk.ErrorResponse			"Missing username or password, or malformed body"
//	@Failure		409		{object}	accountsdk.ErrorResponse			"Username already exists"
//	@Failure		500		{object}	accountsdk.ErrorResponse			"Internal server error"
//	@Router			/api/user [post].
func (h *AccountsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req accountsdk.CreateAccountRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.Directory.Create(r.Context(), domain.NewAccount{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toAccount(view))
}

// HandleUpdate applies a partial update
//
//	@Summary		Update account
//	@Description	Updates the name and/or password of an account. Omitted fields keep their value.
//	@Description	The username is accepted for compatibility but never changes.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int								true	"Account ID"
//	@Param			request	body		accountsdk.UpdateAccountRequest	true	"Fields to change"
//	@Success		200		{object}	accountsdk.Account				"The updated account"
//	@Failure		400		{object}	accountsdk.ErrorResponse			"Malformed id or body"
//	@Failure		404		{object}	accountsdk.ErrorResponse			"No account with this id"
//	@Failure		500		{object}	accountsdk.ErrorResponse			"Internal server error"
//	@Router			/api/user/{id} [put].
func (h *AccountsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req accountsdk.UpdateAccountRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.Directory.Update(r.Context(), id, domain.AccountPatch{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAccount(view))
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func toAccount(v domain.AccountView) accountsdk.Account {
	return accountsdk.Account{
		ID:       v.ID,
		Name:     v.Name,
		Username: v.Username,
		Created:  v.CreatedAt,
		Updated:  v.UpdatedAt,
	}
}
