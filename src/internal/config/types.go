package config

import (
	"path/filepath"
	"time"
)

const (
	DefaultIP                 = "localhost"
	DefaultPort               = 8080
	DefaultReadTimeoutSec     = 15
	DefaultWriteTimeoutSec    = 15
	DefaultIdleTimeoutSec     = 60
	DefaultShutdownTimeoutSec = 5
	DefaultGreeting           = "Hello World!"
	DefaultIndexTemplate      = "<html><body><h1>{{greeting}}</h1></body></html>"
	DefaultStopRedirect       = "/"
)

type Config struct {
	// Server holds the listener and access policy settings.
	Server *ServerConfig `toml:"server" json:"server"`
	// Pages holds the content served by the built-in routes.
	Pages *PagesConfig `toml:"pages" json:"pages"`

	_absConfigFilePath string
}

type ServerConfig struct {
	// IP is the address to bind to (IP literal or hostname).
	IP string `toml:"ip" json:"ip" validate:"required,bind_address"`
	// Port is the TCP port to listen on (1-65535).
	Port int `toml:"port" json:"port" validate:"required,min=1,max=65535"`
	// BannedIDs are client identifiers (usually IP addresses) rejected before routing.
	BannedIDs []string `toml:"banned_ids,omitempty" json:"banned_ids,omitempty" validate:"dive,banned_id"`
	// TrustProxyHeaders takes the client identifier from X-Real-IP / X-Forwarded-For.
	TrustProxyHeaders bool `toml:"trust_proxy_headers" json:"trust_proxy_headers"`
	// ReusePort sets SO_REUSEPORT so several instances can share the port.
	ReusePort bool `toml:"reuse_port" json:"reuse_port"`
	// ReadTimeoutSec bounds reading a whole request (default: 15).
	ReadTimeoutSec int `toml:"read_timeout_sec" json:"read_timeout_sec" validate:"gte=0"`
	// WriteTimeoutSec bounds writing a response (default: 15).
	WriteTimeoutSec int `toml:"write_timeout_sec" json:"write_timeout_sec" validate:"gte=0"`
	// IdleTimeoutSec bounds keep-alive idle time (default: 60).
	IdleTimeoutSec int `toml:"idle_timeout_sec" json:"idle_timeout_sec" validate:"gte=0"`
	// ShutdownTimeoutSec bounds the graceful drain on stop; remaining connections are closed after it (default: 5).
	ShutdownTimeoutSec int `toml:"shutdown_timeout_sec" json:"shutdown_timeout_sec" validate:"gte=0"`
	// RateLimitRPS is the per-client request rate; 0 disables throttling.
	RateLimitRPS float64 `toml:"rate_limit_rps,omitempty" json:"rate_limit_rps,omitempty" validate:"gte=0"`
	// RateLimitBurst is the per-client burst (default: RateLimitRPS rounded up).
	RateLimitBurst int `toml:"rate_limit_burst,omitempty" json:"rate_limit_burst,omitempty" validate:"gte=0"`
}

type PagesConfig struct {
	// Greeting is substituted for {{greeting}} in IndexTemplate.
	Greeting string `toml:"greeting" json:"greeting"`
	// IndexTemplate is the body of GET /.
	IndexTemplate string `toml:"index_template" json:"index_template"`
	// IndexTemplateFile replaces IndexTemplate with the file's content.
	// Relative paths resolve against the config file directory.
	IndexTemplateFile string `toml:"index_template_file,omitempty" json:"index_template_file,omitempty"`
	// StopRedirect is the Location returned by GET /stop.
	StopRedirect string `toml:"stop_redirect" json:"stop_redirect" validate:"omitempty,uri"`
}

// DefaultConfig returns a configuration with every field set to its default.
func DefaultConfig() *Config {
	c := &Config{
		Server: &ServerConfig{
			IP:   DefaultIP,
			Port: DefaultPort,
		},
	}
	c.applyDefaults()
	return c
}

// applyDefaults fills zero-valued optional fields.
func (c *Config) applyDefaults() {
	if c.Server != nil {
		if c.Server.ReadTimeoutSec == 0 {
			c.Server.ReadTimeoutSec = DefaultReadTimeoutSec
		}
		if c.Server.WriteTimeoutSec == 0 {
			c.Server.WriteTimeoutSec = DefaultWriteTimeoutSec
		}
		if c.Server.IdleTimeoutSec == 0 {
			c.Server.IdleTimeoutSec = DefaultIdleTimeoutSec
		}
		if c.Server.ShutdownTimeoutSec == 0 {
			c.Server.ShutdownTimeoutSec = DefaultShutdownTimeoutSec
		}
	}

	if c.Pages == nil {
		c.Pages = &PagesConfig{}
	}
	if c.Pages.Greeting == "" {
		c.Pages.Greeting = DefaultGreeting
	}
	if c.Pages.IndexTemplate == "" {
		c.Pages.IndexTemplate = DefaultIndexTemplate
	}
	if c.Pages.StopRedirect == "" {
		c.Pages.StopRedirect = DefaultStopRedirect
	}
}

func (c *Config) GetConfigDir() string {
	return filepath.Dir(c._absConfigFilePath)
}

func (s *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSec) * time.Second
}

func (s *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSec) * time.Second
}

func (s *ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSec) * time.Second
}

func (s *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSec) * time.Second
}
