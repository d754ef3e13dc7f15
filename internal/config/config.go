package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	HTTPAddr string
	// WatchAddr serves the spectator websocket; "off" disables it.
	WatchAddr    string
	WatchOrigins []string

	RedisURL    string
	DatabaseURL string

	GameTTLSec  int
	MessagesDir string

	// AllowedRooms restricts which rooms may open games; empty allows all.
	AllowedRooms []string
}

// WatchEnabled reports whether the spectator server should run.
func (c *AppConfig) WatchEnabled() bool { return c.WatchAddr != "off" }

// GameTTL is GameTTLSec as a duration.
func (c *AppConfig) GameTTL() time.Duration { return time.Duration(c.GameTTLSec) * time.Second }

// RoomAllowed reports whether room may host games.
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:   ":8960",
		WatchAddr:  ":8961",
		GameTTLSec: 86400,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("WATCH_ADDR")); v != "" {
		cfg.WatchAddr = v
	}
	cfg.WatchOrigins = splitList(os.Getenv("WATCH_ORIGINS"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if v := strings.TrimSpace(os.Getenv("GAME_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.GameTTLSec = n
		}
	}

	cfg.AllowedRooms = splitList(os.Getenv("ALLOWED_ROOMS"))

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
