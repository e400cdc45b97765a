package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/depot/dialect"
)

const configYAML = `
driver: sqlite
dsn: "file:config_test?mode=memory&_pragma=foreign_keys(1)"
schema: main
max_open_conns: 1
conn_max_lifetime: 1m
slow_threshold: 250ms
log:
  level: debug
  format: json
catalog:
  - table: roles
    columns:
      - {name: id, type: int64}
      - {name: uuid, type: uuid}
      - {name: rolename, type: string, unique: true, natural: true}
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(configYAML))
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, cfg.Driver)
	assert.Equal(t, 1, cfg.MaxOpenConns)
	assert.Equal(t, 5, cfg.MaxIdleConns, "default kept")
	assert.Equal(t, time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, 250*time.Millisecond, cfg.SlowThreshold)
	assert.Equal(t, "json", cfg.Log.Format)

	cat, err := cfg.Catalog()
	require.NoError(t, err)
	assert.Equal(t, "main.roles", cat.MustLookup("roles").QualifiedName())
}

func TestParse_Invalid(t *testing.T) {
	for name, data := range map[string]string{
		"driver":   "driver: oracle",
		"pool":     "max_open_conns: -1",
		"duration": "slow_threshold: -1s",
		"level":    "log: {level: loud}",
		"format":   "log: {format: xml}",
		"syntax":   "driver: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			require.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvDriver:   "pgx",
		EnvDSN:      "postgres://localhost/depot",
		EnvSchema:   "public",
		EnvLogLevel: "warn",
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "pgx", cfg.Driver)
	assert.Equal(t, "postgres://localhost/depot", cfg.DSN)
	assert.Equal(t, "public", cfg.Schema)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv(EnvDSN, "file:config_env?mode=memory")
	path := filepath.Join(t.TempDir(), "depot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file:config_env?mode=memory", cfg.DSN)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestCatalogFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.yaml"), []byte(`
entities:
  - table: roles
    columns:
      - {name: id, type: int64}
      - {name: uuid, type: uuid}
`), 0o600))
	path := filepath.Join(dir, "depot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: sqlite\ncatalog_file: catalog.yaml\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	cat, err := cfg.Catalog()
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log = LogConfig{Level: "warn", Format: "json"}
	l := cfg.Logger(&buf)
	l.Info("hidden")
	l.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestOpen(t *testing.T) {
	var buf bytes.Buffer
	cfg, err := Parse([]byte(configYAML))
	require.NoError(t, err)
	cfg.Debug = true
	cfg.SlowThreshold = 0
	drv, err := cfg.Open(context.Background(), cfg.Logger(&buf))
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })
	assert.Equal(t, dialect.SQLite, drv.Dialect())
	assert.Equal(t, 1, drv.DB().Stats().MaxOpenConnections)

	require.NoError(t, drv.Exec(context.Background(), "CREATE TABLE t (id INTEGER)", []any{}, nil))
	assert.EqualValues(t, 1, drv.QueryStats().Snapshot().Execs)
	assert.Contains(t, buf.String(), `"msg":"exec"`)
	assert.Contains(t, buf.String(), `"msg":"slow statement"`)
}

func TestOpen_Unreachable(t *testing.T) {
	cfg := Default()
	cfg.Driver = "unregistered"
	_, err := cfg.Open(context.Background(), nil)
	require.Error(t, err)
}
