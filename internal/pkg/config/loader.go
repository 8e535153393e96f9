// Package config provides fail-open environment loaders. A missing variable
// yields its default silently; a malformed or invalid one yields its default
// plus a warning, so a typo in a tunable never stops the process.
//
// Values that must be present (credentials, chat IDs) are not loaded here;
// callers check those explicitly and fail fast.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult is the outcome of loading one environment value.
type LoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

func fallback[T any](envKey, raw string, defaultValue T, reason error) LoadResult[T] {
	return LoadResult[T]{
		Value: defaultValue,
		Warnings: []string{fmt.Sprintf(
			"Invalid %s='%s': %v, falling back to default '%v'",
			envKey, raw, reason, defaultValue,
		)},
		FallbackApplied: true,
	}
}

// load reads envKey, parses it and validates it. Both parse and validation
// failures fall back to defaultValue.
func load[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) LoadResult[T] {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	value, err := parse(raw)
	if err != nil {
		return fallback(envKey, raw, defaultValue, err)
	}
	if validator != nil {
		if err := validator(value); err != nil {
			return fallback(envKey, raw, defaultValue, err)
		}
	}
	return LoadResult[T]{Value: value}
}

// LoadEnvString returns the variable or defaultValue when unset. No validation.
func LoadEnvString(envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnvWithFallback loads a string and validates it.
//
//	result := LoadEnvWithFallback("SCAN_SCHEDULE", "0 */6 * * *", ValidateCronSchedule)
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult[string] {
	return load(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string such as "30m" or "220ms".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return load(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult[int] {
	return load(envKey, defaultValue, func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return n, nil
	}, validator)
}

// LoadEnvBool accepts the forms understood by strconv.ParseBool.
func LoadEnvBool(envKey string, defaultValue bool) LoadResult[bool] {
	return load(envKey, defaultValue, func(s string) (bool, error) {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
		}
		return b, nil
	}, nil)
}

// Resolve logs the warnings of a LoadResult, records the fallback on metrics
// when non-nil and returns the value.
func Resolve[T any](field string, result LoadResult[T], metrics *ConfigMetrics, logger *slog.Logger) T {
	if !result.FallbackApplied {
		return result.Value
	}
	if logger == nil {
		logger = slog.Default()
	}
	for _, w := range result.Warnings {
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", w))
	}
	if metrics != nil {
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field)
		metrics.SetFallbackActive(true)
	}
	return result.Value
}
