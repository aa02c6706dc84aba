package config

import (
	"os"
	"strconv"
	"time"
)

// getEnv returns the value of an environment variable or a default if unset.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt returns an environment variable parsed as an int, or the default if
// unset or unparsable.
func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getInt64 returns an environment variable parsed as an int64, or the default
// if unset or unparsable.
func getInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getBool returns an environment variable parsed as a bool.
// Accepts: 1, t, T, TRUE, true, True, 0, f, F, FALSE, false, False.
func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getDuration returns an environment variable parsed as a time.Duration,
// falling back to the (parseable) default on absence or parse failure.
func getDuration(key string, defaultValue string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		duration, _ := time.ParseDuration(defaultValue)
		return duration
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
		return duration
	}
	return duration
}
