package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/accountsdk"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	dir := t.TempDir()
	return Config{
		DBDriver:            DriverSQLite,
		DatabaseFile:        filepath.Join(dir, "accounts.db"),
		HashAlgorithm:       "argon2id",
		BcryptCost:          4,
		Argon2MemoryKiB:     64,
		Argon2Iterations:    1,
		Argon2Parallelism:   1,
		PepperFile:          filepath.Join(dir, "pepper"),
		Env:                 "test",
		LogLevel:            "error",
		Port:                8080,
		ShutdownGracePeriod: time.Second,
	}
}

func TestNewWiresSQLiteApplication(t *testing.T) {
	app, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown() })

	body, _ := json.Marshal(accountsdk.CreateAccountRequest{Name: "Alice", Username: "alice", Password: "secret1"})
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/user", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body, _ = json.Marshal(accountsdk.AuthenticateRequest{Username: "alice", Password: "secret1"})
	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/user/authenticate", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"authorised":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBDriver = "oracle"
	_, err := New(cfg)
	require.ErrorContains(t, err, "invalid configuration")

	cfg = testConfig(t)
	cfg.HashAlgorithm = "md5"
	_, err = New(cfg)
	require.ErrorContains(t, err, "password hasher")
}
