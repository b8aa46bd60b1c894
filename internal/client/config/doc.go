// Package config loads runtime configuration for the registry CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with --config / -c (see LoadJSON).
//  3. Command-line flags of the cli package, which override earlier values.
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "5s" or
// integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "access_token": "eyJ...",
//	  "cache_path": "registry-cache.db",
//	  "request_timeout": "5s"
//	}
package config
