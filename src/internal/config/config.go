package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/maksimkurb/hostgate/src/internal/log"
	"github.com/maksimkurb/hostgate/src/internal/utils"
)

// Environment variables overriding the [server] section.
const (
	EnvIP        = "HOSTGATE_IP"
	EnvPort      = "HOSTGATE_PORT"
	EnvBannedIDs = "HOSTGATE_BANNED_IDS"
)

// Keys understood by Config.Get.
const (
	KeyIP        = "ip"
	KeyPort      = "port"
	KeyBannedIDs = "bannedIds"
)

func LoadConfig(configPath string) (*Config, error) {
	configFile := filepath.Clean(configPath)

	if !filepath.IsAbs(configFile) {
		if path, err := filepath.Abs(configFile); err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %v", err)
		} else {
			configFile = path
		}
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Errorf("Configuration file not found: %s", configFile)
		return nil, fmt.Errorf("configuration file not found: %s", configFile)
	}

	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	config, err := ParseConfig(content)
	if err != nil {
		return nil, err
	}
	config._absConfigFilePath = configFile

	if err := config.loadIndexTemplateFile(); err != nil {
		return nil, err
	}

	log.Debugf("Configuration file path: %s", configFile)

	return config, nil
}

// ParseConfig decodes TOML content and fills defaults. It does not validate.
func ParseConfig(content []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(content, &config); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			log.Errorf("%s", derr.String())
			row, col := derr.Position()
			log.Errorf("Error at line %d, column %d", row, col)
			return nil, fmt.Errorf("failed to parse config file at line %d, column %d", row, col)
		}
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) loadIndexTemplateFile() error {
	if c.Pages == nil || c.Pages.IndexTemplateFile == "" {
		return nil
	}

	path := utils.GetAbsolutePath(c.Pages.IndexTemplateFile, c.GetConfigDir())
	content, err := utils.ReadTextFile(path)
	if err != nil {
		return fmt.Errorf("failed to read index template: %w", err)
	}

	log.Debugf("Index template loaded from %s", path)
	c.Pages.IndexTemplate = content
	return nil
}

// LoadEnvFiles loads KEY=VALUE files into the process environment.
// Missing files are skipped; variables already set are not overwritten.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			log.Debugf("Env file %s not found, skipping", path)
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		log.Debugf("Loaded env file %s", path)
	}
	return nil
}

// ApplyEnvOverrides replaces [server] values with HOSTGATE_* variables when set.
func (c *Config) ApplyEnvOverrides() error {
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}

	if v, ok := os.LookupEnv(EnvIP); ok {
		c.Server.IP = strings.TrimSpace(v)
	}

	if v, ok := os.LookupEnv(EnvPort); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}

	if v, ok := os.LookupEnv(EnvBannedIDs); ok {
		var ids []string
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		c.Server.BannedIDs = ids
	}

	c.applyDefaults()
	return nil
}

// Get returns a server setting by key: "ip" (string), "port" (int) or
// "bannedIds" ([]string). The bool is false for unknown keys and unset values.
func (c *Config) Get(key string) (any, bool) {
	if c == nil || c.Server == nil {
		return nil, false
	}

	switch key {
	case KeyIP:
		return c.Server.IP, c.Server.IP != ""
	case KeyPort:
		return c.Server.Port, c.Server.Port != 0
	case KeyBannedIDs, "banned_ids":
		if c.Server.BannedIDs == nil {
			return nil, false
		}
		ids := make([]string, len(c.Server.BannedIDs))
		copy(ids, c.Server.BannedIDs)
		return ids, true
	default:
		return nil, false
	}
}

func (c *Config) SerializeConfig() (*bytes.Buffer, error) {
	buf := bytes.Buffer{}
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return &buf, nil
}
