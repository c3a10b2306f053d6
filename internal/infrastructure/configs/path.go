package configs

import (
	"flag"
	"os"

	"github.com/hilthontt/lobby/internal/infrastructure/env"
)

var configFlag = flag.String("config", "", "path to config file")

// DetermineConfigPath resolves the config file from --config, LOBBY_CONFIG or
// a list of well-known locations. It returns "" when none exists, in which
// case Load runs on defaults and environment overrides alone.
func DetermineConfigPath() string {
	if !flag.Parsed() {
		flag.Parse()
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = env.GetString("LOBBY_CONFIG", "")
	}
	if configPath != "" {
		return configPath
	}

	candidates := []string{
		"./config.yaml",
		"./config.yml",
		"../../config.yaml", // keep for local dev
		"/etc/lobby/config.yaml",
		"/app/config.yaml", // common in Docker
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
