package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/aussiebroadwan/accounts/pkg/accountsdk"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	store   *sqlite.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	hasher, err := cryptox.NewHasher(cryptox.HasherConfig{
		Argon2id: cryptox.Argon2idParams{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
	})
	require.NoError(t, err)

	dir, err := service.NewDirectory(st, hasher)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRouter("test", st, dir, logger)
	r.ApplyRoutes()

	return &testServer{handler: r, store: st}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&out), rec.Body.String())
	return out
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code, desc string) {
	t.Helper()

	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decodeBody[accountsdk.ErrorResponse](t, rec)
	require.Equal(t, code, body.Error)
	if desc != "" {
		require.Equal(t, desc, body.ErrorDescription)
	}
}

func TestCreateAndGet(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/user", `{"name":"Alice","username":"alice","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotContains(t, rec.Body.String(), "password")
	require.NotContains(t, rec.Body.String(), "argon2id")

	created := decodeBody[accountsdk.Account](t, rec)
	require.Positive(t, created.ID)
	require.Equal(t, "alice", created.Username)
	require.Equal(t, created.Created, created.Updated)

	rec = s.do(t, http.MethodGet, "/api/user/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[accountsdk.Account](t, rec)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "Alice", got.Name)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.ElementsMatch(t, []string{"id", "name", "username", "created", "updated"}, keys(raw))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestCreateErrors(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/user", `{"name":"Alice","username":"alice","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
		desc   string
	}{
		{"duplicate", `{"name":"A2","username":"alice","password":"x"}`, http.StatusConflict, httpx.CodeConflict, "username already exists"},
		{"duplicate without password", `{"username":"alice"}`, http.StatusConflict, httpx.CodeConflict, "username already exists"},
		{"missing password", `{"username":"bob"}`, http.StatusBadRequest, httpx.CodeInvalidRequest, "password required"},
		{"missing username", `{"password":"secret1"}`, http.StatusBadRequest, httpx.CodeInvalidRequest, "username required"},
		{"unknown field", `{"username":"bob","password":"x","role":"admin"}`, http.StatusBadRequest, httpx.CodeInvalidRequest, ""},
		{"malformed", `{"username":`, http.StatusBadRequest, httpx.CodeInvalidRequest, ""},
		{"name too long", `{"name":"` + strings.Repeat("n", 256) + `","username":"bob","password":"x"}`, http.StatusBadRequest, httpx.CodeInvalidRequest, "name must be at most 255 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireError(t, s.do(t, http.MethodPost, "/api/user", tt.body), tt.status, tt.code, tt.desc)
		})
	}

	list := decodeBody[accountsdk.ListAccountsResponse](t, s.do(t, http.MethodGet, "/api/user", ""))
	require.Equal(t, 1, list.Total)
}

func TestList(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/user", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"total":0,"items":[]}`, rec.Body.String())

	for _, u := range []string{"carol", "alice"} {
		rec := s.do(t, http.MethodPost, "/api/user", `{"username":"`+u+`","password":"secret1"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	list := decodeBody[accountsdk.ListAccountsResponse](t, s.do(t, http.MethodGet, "/api/user", ""))
	require.Equal(t, 2, list.Total)
	require.Equal(t, "carol", list.Items[0].Username)
	require.Equal(t, "alice", list.Items[1].Username)
}

func TestGetErrors(t *testing.T) {
	s := newTestServer(t)

	requireError(t, s.do(t, http.MethodGet, "/api/user/9999", ""), http.StatusNotFound, httpx.CodeNotFound, "account with id 9999 not found")
	requireError(t, s.do(t, http.MethodGet, "/api/user/abc", ""), http.StatusBadRequest, httpx.CodeInvalidRequest, "id must be a positive integer")
	requireError(t, s.do(t, http.MethodGet, "/api/user/0", ""), http.StatusBadRequest, httpx.CodeInvalidRequest, "")
}

func TestUpdate(t *testing.T) {
	s := newTestServer(t)
	created := decodeBody[accountsdk.Account](t,
		s.do(t, http.MethodPost, "/api/user", `{"name":"Alice","username":"alice","password":"secret1"}`))

	rec := s.do(t, http.MethodPut, "/api/user/1", `{"name":"Alice Smith","username":"mallory"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[accountsdk.Account](t, rec)
	require.Equal(t, "Alice Smith", updated.Name)
	require.Equal(t, "alice", updated.Username)
	require.True(t, created.Created.Equal(updated.Created))
	require.True(t, updated.Updated.After(created.Updated))

	rec = s.do(t, http.MethodPut, "/api/user/1", `{"password":"secret2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Alice Smith", decodeBody[accountsdk.Account](t, rec).Name)

	auth := decodeBody[accountsdk.AuthenticateResponse](t,
		s.do(t, http.MethodPost, "/api/user/authenticate", `{"username":"alice","password":"secret2"}`))
	require.True(t, auth.Authorised)

	requireError(t, s.do(t, http.MethodPut, "/api/user/9999", `{"name":"x"}`), http.StatusNotFound, httpx.CodeNotFound, "")
	requireError(t, s.do(t, http.MethodPut, "/api/user/1", `{"id":5}`), http.StatusBadRequest, httpx.CodeInvalidRequest, "")
}

func TestAuthenticate(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/user", `{"username":"alice","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name string
		body string
		want bool
	}{
		{"correct", `{"username":"alice","password":"secret1"}`, true},
		{"wrong password", `{"username":"alice","password":"wrong"}`, false},
		{"unknown user", `{"username":"nobody","password":"secret1"}`, false},
		{"empty", `{}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/user/authenticate", tt.body)
			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, tt.want, decodeBody[accountsdk.AuthenticateResponse](t, rec).Authorised)
			require.NotContains(t, rec.Body.String(), "error")
		})
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/livez", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "test", decodeBody[accountsdk.HealthResponse](t, rec).Version)

	rec = s.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, s.store.Close())
	rec = s.do(t, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	health := decodeBody[accountsdk.HealthResponse](t, rec)
	require.Equal(t, "degraded", health.Status)
}

func TestInfrastructureErrorsAreOpaque(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.store.Close())

	rec := s.do(t, http.MethodGet, "/api/user", "")
	requireError(t, rec, http.StatusInternalServerError, httpx.CodeServerError, "internal server error")
	require.NotContains(t, rec.Body.String(), "sql")
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/livez", "")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
