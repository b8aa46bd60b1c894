package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := writeTempJSON(t, dir, "cfg.json", map[string]any{
		"endpoint_addr_grpc":             "www.example:9000",
		"database_dsn":                   "postgres://x",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "90m",
		"registry_address":               "0x00000000000000000000000000000000000000bb",
		"s3_bucket":                      "ciphertexts",
	})

	t.Run("loads from json, keeps unspecified fields", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{FHESecret: "keep-me", S3Region: "eu-west-1"}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 90*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, "0x00000000000000000000000000000000000000bb", cfg.RegistryAddress)
		assert.Equal(t, "ciphertexts", cfg.S3Bucket)
		assert.Equal(t, "keep-me", cfg.FHESecret)
		assert.Equal(t, "eu-west-1", cfg.S3Region)
	})

	t.Run("no config flag leaves config untouched", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrGRPC: "defaults:1234"}
		parseJson(cfg)

		assert.Equal(t, &Config{EndpointAddrGRPC: "defaults:1234"}, cfg)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		os.Args = []string{"testbin", "-c", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
