// Package config handles configuration file parsing and validation for hostgate.
//
// The configuration is a TOML file with a [server] section (bind address,
// port, banned client identifiers, timeouts) and an optional [pages] section
// for the built-in routes. HOSTGATE_IP, HOSTGATE_PORT and HOSTGATE_BANNED_IDS
// override the file, and may themselves come from .env files.
//
// Loading and validating a configuration file:
//
//	cfg, err := config.LoadConfig("/etc/hostgate.toml")
//	if err != nil {
//	    log.Fatalf("%v", err)
//	}
//	if err := cfg.ApplyEnvOverrides(); err != nil {
//	    log.Fatalf("%v", err)
//	}
//	if err := cfg.ValidateConfig(); err != nil {
//	    log.Fatalf("%v", err)
//	}
//
// Config also satisfies the key/value Source consumed by access.NewHostFromSource:
//
//	ip, _ := cfg.Get("ip")
package config
