package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath       = "CONFIG_PATH"
	EnvDBConnection     = "DB_CONNECTION"
	EnvJWTSecret        = "JWT_SECRET"
	EnvJWTExpiry        = "JWT_EXPIRY"
	EnvRegistrationMode = "REGISTRATION_MODE"
	EnvTurnstileSecret  = "CLOUDFLARE_TURNSTILE_SECRET_KEY"
	EnvAdminName        = "ADMIN_NAME"
	EnvAdminEmail       = "ADMIN_EMAIL"
	EnvAdminPassword    = "ADMIN_PASSWORD"
)

// Registration modes.
const (
	// RegistrationModeOpen accepts any registration request.
	RegistrationModeOpen = "open"
	// RegistrationModeInviteOnly requires a consumable invite code.
	RegistrationModeInviteOnly = "invite_only"
)

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// RegistrationConfig holds registration gating and bot-verification settings.
type RegistrationConfig struct {
	Mode            string `yaml:"mode"`
	TurnstileSecret string `yaml:"turnstile-secret"`
}

// InviteOnly reports whether registration requires an invite code.
func (c RegistrationConfig) InviteOnly() bool {
	return strings.TrimSpace(c.Mode) == RegistrationModeInviteOnly
}

// Config holds the resolved application configuration injected at startup.
type Config struct {
	DatabaseDSN  string
	JWT          JWTConfig
	Registration RegistrationConfig
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

// fileConfig maps the YAML fields read from the config file.
type fileConfig struct {
	DatabaseDSN string `yaml:"database-dsn"`
	Database    struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	JWT struct {
		Secret string `yaml:"secret"`
		Expiry string `yaml:"expiry"`
	} `yaml:"jwt"`
	Registration RegistrationConfig `yaml:"registration"`
}

// Load reads the YAML config file and applies environment overrides.
// A missing file is not an error when the DSN is provided via environment.
func Load(configPath string) (Config, error) {
	result := Config{
		JWT:          JWTConfig{Expiry: defaultJWTExpiry},
		Registration: RegistrationConfig{Mode: RegistrationModeOpen},
	}

	data, errRead := os.ReadFile(configPath)
	if errRead != nil && !os.IsNotExist(errRead) {
		return Config{}, fmt.Errorf("read config file: %w", errRead)
	}
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return Config{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
		if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
			result.DatabaseDSN = dsn
		} else if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
			result.DatabaseDSN = dsn
		}
		if secret := strings.TrimSpace(cfg.JWT.Secret); secret != "" {
			result.JWT.Secret = secret
		}
		if expiryRaw := strings.TrimSpace(cfg.JWT.Expiry); expiryRaw != "" {
			if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
				result.JWT.Expiry = expiry
			}
		}
		if mode := strings.TrimSpace(cfg.Registration.Mode); mode != "" {
			result.Registration.Mode = mode
		}
		if secret := strings.TrimSpace(cfg.Registration.TurnstileSecret); secret != "" {
			result.Registration.TurnstileSecret = secret
		}
	}

	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		result.DatabaseDSN = dsn
	}
	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.JWT.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.JWT.Expiry = expiry
		}
	}
	if mode := strings.TrimSpace(os.Getenv(EnvRegistrationMode)); mode != "" {
		result.Registration.Mode = mode
	}
	if secret := strings.TrimSpace(os.Getenv(EnvTurnstileSecret)); secret != "" {
		result.Registration.TurnstileSecret = secret
	}

	if result.DatabaseDSN == "" {
		return Config{}, ErrMissingDatabaseDSN
	}
	if result.JWT.Expiry <= 0 {
		result.JWT.Expiry = defaultJWTExpiry
	}
	return result, nil
}
