// Package cli implements the registry command-line client with cobra.
//
// Every command builds a gRPC client from the layered configuration
// (defaults, JSON file, flags). Commands that need an identity read it from
// the access token; the token command mints one given the server secret.
// Decrypted messages are kept in a local SQLite cache bound to a single
// registry.
package cli
