package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// writeError maps directory error kinds onto HTTP statuses. Infrastructure
// details are logged, never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *httpx.RequestError
	if errors.As(err, &reqErr) {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, reqErr.Msg)
		return
	}

	switch domain.KindOf(err) {
	case domain.KindNotFound:
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, domain.MessageOf(err))
	case domain.KindConflict:
		httpx.WriteError(w, http.StatusConflict, httpx.CodeConflict, domain.MessageOf(err))
	case domain.KindInvalidInput:
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, domain.MessageOf(err))
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeServerError, "internal server error")
	}
}
