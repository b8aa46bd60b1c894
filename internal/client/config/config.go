package config

import "time"

// Config holds runtime settings for the registry CLI.
type Config struct {
	ServerEndpointAddr string
	// AccessToken is the JWT minted for the user's identity.
	AccessToken    string
	CachePath      string
	RequestTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.AccessToken = ""
	c.CachePath = "registry-cache.db"
	c.RequestTimeout = 5 * time.Second
}

// LoadConfig applies defaults and then the JSON file at path, if any.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := LoadJSON(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
