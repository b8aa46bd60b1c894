package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/fheregistry/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	AccessToken        string         `json:"access_token"`
	CachePath          string         `json:"cache_path"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
}

// LoadJSON overlays cfg with the non-empty values of the JSON file at
// path. An empty path is a no-op.
func LoadJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.AccessToken != "" {
		cfg.AccessToken = jc.AccessToken
	}
	if jc.CachePath != "" {
		cfg.CachePath = jc.CachePath
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
	return nil
}
