// Package config handles configuration for the registry server,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the registry server.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the public gRPC endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration: lifetime of tokens minted by the operator CLI.
//   - RegistryAddress: identity of this registry instance; input proofs are bound to it.
//   - FHESecret / FHESalt: argon2 inputs for the local FHE service key.
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint:
//     ciphertext store settings. Empty S3Bucket keeps ciphertexts in memory.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddrGRPC            string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	RegistryAddress             string
	FHESecret                   string
	FHESalt                     string
	S3RootUser                  string
	S3RootPassword              string
	S3Bucket                    string
	S3Region                    string
	S3BaseEndpoint              string
	LogLevel                    string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.RegistryAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	c.FHESecret = "fhe-dev-secret"
	c.FHESalt = "fheregistry"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
