package env

import (
	"os"
	"strconv"
	"strings"

	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
)

func Get(key, fallback string, log *logger.Logger) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		if log != nil {
			log.Debug("env var not set, using fallback", "key", key, "fallback", fallback)
		}
		return fallback
	}
	return val
}

func GetInt(key string, fallback int, log *logger.Logger) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		if log != nil {
			log.Warn("env var not an int, using fallback", "key", key, "value", val)
		}
		return fallback
	}
	return parsed
}

func GetBool(key string, fallback bool, log *logger.Logger) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if val == "" {
		return fallback
	}
	switch val {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	if log != nil {
		log.Warn("env var not a bool, using fallback", "key", key, "value", val)
	}
	return fallback
}
