// Package client contains the client-side building blocks of the registry
// CLI.
//
// # Overview
//
// The package provides:
//  1. A concrete gRPC client (see GRPCClient) that manages a connection,
//     attaches the access token to every call, and maps gRPC status codes
//     back to the sentinel errors of the common package.
//  2. A local SQLite cache of decrypted messages (see Cache), bootstrapped
//     with embedded goose migrations (InitDatabase, RunMigrations).
//
// # Error Handling
//
// Transport conditions are exposed as ErrUnavailable, ErrUnauthorized and
// ErrInvalidArgument. Registry outcomes come back as common.ErrProofInvalid,
// common.ErrMessageNotFound, common.ErrNotAuthorized and
// common.ErrAccessDenied. Match them with errors.Is.
package client
