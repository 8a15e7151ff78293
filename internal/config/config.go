// Package config handles application configuration from environment variables
// and the optional batch definition file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"cleanmeta/internal/model"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath     string
	LogLevel         string
	AdminAddr        string
	AdminUser        string
	AdminPassword    string
	TelegramBotToken string
	AllowedUsers     []int64
	BatchConfigPath  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	user, pass := os.Getenv("ADMIN_USER"), os.Getenv("ADMIN_PASSWORD")
	if (user == "") != (pass == "") {
		return nil, fmt.Errorf("ADMIN_USER and ADMIN_PASSWORD must be set together")
	}

	return &Config{
		DatabasePath:     envOrDefault("DATABASE_PATH", "./data/cleanmeta.db"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		AdminAddr:        envOrDefault("ADMIN_ADDR", ":8080"),
		AdminUser:        user,
		AdminPassword:    pass,
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		AllowedUsers:     allowedUsers,
		BatchConfigPath:  os.Getenv("BATCH_CONFIG"),
	}, nil
}

// IsUserAllowed checks whether a Telegram user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// LoadBatchSpec reads the batch definition from a TOML file, filling any
// field the file leaves out from the defaults. An empty path returns the
// defaults.
func LoadBatchSpec(path string) (model.BatchSpec, error) {
	spec := model.DefaultBatchSpec()
	if path == "" {
		return spec, nil
	}

	var file model.BatchSpec
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return spec, fmt.Errorf("decode batch config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return spec, fmt.Errorf("unknown keys in batch config %s: %v", path, undecoded)
	}

	if file.ItemType != "" {
		spec.ItemType = file.ItemType
	}
	if file.Status != "" {
		spec.Status = file.Status
	}
	if md.IsDefined("keys") {
		keys := make([]string, 0, len(file.Keys))
		for _, k := range file.Keys {
			if k = model.SanitizeKey(k); k != "" {
				keys = append(keys, k)
			}
		}
		if len(keys) == 0 {
			return spec, fmt.Errorf("batch config %s: keys must not be empty", path)
		}
		spec.Keys = keys
	}
	return spec, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
