package app

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"ACCOUNTS_DB_DRIVER", "ACCOUNTS_DATABASE_FILE", "ACCOUNTS_DATABASE_URL",
		"ACCOUNTS_HASH_ALGORITHM", "ACCOUNTS_BCRYPT_COST", "ACCOUNTS_PEPPER_FILE",
		"ACCOUNTS_ARGON2_MEMORY_KIB", "ACCOUNTS_ARGON2_ITERATIONS", "ACCOUNTS_ARGON2_PARALLELISM",
		"PORT", "SHUTDOWN_GRACE_PERIOD", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	require.Equal(t, DriverSQLite, cfg.DBDriver)
	require.Equal(t, "accounts.db", cfg.DatabaseFile)
	require.Equal(t, cryptox.AlgorithmArgon2id, cfg.HashAlgorithm)
	require.Equal(t, cryptox.DefaultBcryptCost, cfg.BcryptCost)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.NoError(t, cfg.Validate())

	hc := cfg.HasherConfig("")
	require.Equal(t, cryptox.DefaultArgon2idParams, hc.Argon2id)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ACCOUNTS_DB_DRIVER", "Postgres")
	t.Setenv("ACCOUNTS_DATABASE_URL", "postgres://u:p@db/accounts")
	t.Setenv("ACCOUNTS_HASH_ALGORITHM", "bcrypt")
	t.Setenv("ACCOUNTS_BCRYPT_COST", "12")
	t.Setenv("ACCOUNTS_ARGON2_MEMORY_KIB", "65536")
	t.Setenv("PORT", "9090")
	t.Setenv("SHUTDOWN_GRACE_PERIOD", "30")

	cfg := LoadConfig()
	require.Equal(t, DriverPostgres, cfg.DBDriver)
	require.Equal(t, "bcrypt", cfg.HashAlgorithm)
	require.Equal(t, 12, cfg.BcryptCost)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 30*time.Second, cfg.ShutdownGracePeriod)
	require.NoError(t, cfg.Validate())

	hc := cfg.HasherConfig("pep")
	require.EqualValues(t, 65536, hc.Argon2id.Memory)
	require.Equal(t, "pep", hc.Pepper)
}

func TestLoadConfigIgnoresGarbage(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("SHUTDOWN_GRACE_PERIOD", "soon")

	cfg := LoadConfig()
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
}

func TestConfigValidate(t *testing.T) {
	base := Config{
		DBDriver: DriverSQLite, DatabaseFile: "x.db", Port: 8080,
		Argon2MemoryKiB: 64, Argon2Iterations: 1, Argon2Parallelism: 1,
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.DBDriver = "mysql"
	require.ErrorContains(t, bad.Validate(), `unsupported ACCOUNTS_DB_DRIVER "mysql"`)

	bad = base
	bad.DBDriver = DriverPostgres
	require.ErrorContains(t, bad.Validate(), "ACCOUNTS_DATABASE_URL")

	bad = base
	bad.Port = 0
	bad.Argon2Parallelism = 300
	err := bad.Validate()
	require.ErrorContains(t, err, "PORT")
	require.ErrorContains(t, err, "ACCOUNTS_ARGON2_PARALLELISM")
}

func TestConfigValidate_Argon2Bounds(t *testing.T) {
	base := Config{
		DBDriver: DriverSQLite, DatabaseFile: "x.db", Port: 8080,
		Argon2MemoryKiB: 64, Argon2Iterations: 1, Argon2Parallelism: 1,
	}

	// Would wrap to 64 KiB if narrowed to uint32 unchecked.
	bad := base
	bad.Argon2MemoryKiB = 1<<32 + 64
	require.ErrorContains(t, bad.Validate(), "ACCOUNTS_ARGON2_MEMORY_KIB")

	bad = base
	bad.Argon2MemoryKiB = cryptox.MaxArgon2idMemoryKiB + 1
	require.ErrorContains(t, bad.Validate(), "ACCOUNTS_ARGON2_MEMORY_KIB")

	bad = base
	bad.Argon2Iterations = 1<<32 + 1
	require.ErrorContains(t, bad.Validate(), "ACCOUNTS_ARGON2_ITERATIONS")

	ok := base
	ok.Argon2MemoryKiB = cryptox.MaxArgon2idMemoryKiB
	ok.Argon2Iterations = cryptox.MaxArgon2idIterations
	require.NoError(t, ok.Validate())

	_, err := cryptox.NewHasher(ok.HasherConfig(""))
	require.NoError(t, err)
}
