package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	validPolicies   = []string{InsertFailureSuppress, InsertFailurePropagate}
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validLogFormats = []string{"json", "text", "console"}
)

// Validate checks the configuration without modifying it. Every problem is
// reported as a *ConfigurationError; several problems are joined with
// errors.Join.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, &ConfigurationError{Key: "host", Reason: "mongo host is not configured"})
	}
	if strings.TrimSpace(c.Database) == "" {
		errs = append(errs, &ConfigurationError{Key: "database", Reason: "database is not configured"})
	}
	if c.ConnectTimeout < 0 {
		errs = append(errs, &ConfigurationError{Key: "connect_timeout", Reason: "must not be negative"})
	}
	if c.OperationTimeout < 0 {
		errs = append(errs, &ConfigurationError{Key: "operation_timeout", Reason: "must not be negative"})
	}

	if !slices.Contains(validPolicies, normalizePolicy(c.InsertFailurePolicy)) {
		errs = append(errs, &ConfigurationError{
			Key:    "insert_failure_policy",
			Reason: fmt.Sprintf("invalid value %q (must be one of: %v)", c.InsertFailurePolicy, validPolicies),
		})
	}

	if level := strings.ToLower(strings.TrimSpace(c.Log.Level)); level != "" && !slices.Contains(validLogLevels, level) {
		errs = append(errs, &ConfigurationError{
			Key:    "log.level",
			Reason: fmt.Sprintf("invalid value %q (must be one of: %v)", c.Log.Level, validLogLevels),
		})
	}
	if format := strings.ToLower(strings.TrimSpace(c.Log.Format)); format != "" && !slices.Contains(validLogFormats, format) {
		errs = append(errs, &ConfigurationError{
			Key:    "log.format",
			Reason: fmt.Sprintf("invalid value %q (must be one of: %v)", c.Log.Format, validLogFormats),
		})
	}

	if c.Tracing.Enabled && strings.TrimSpace(c.Tracing.Endpoint) == "" {
		errs = append(errs, &ConfigurationError{Key: "tracing.endpoint", Reason: "required when tracing is enabled"})
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, &ConfigurationError{Key: "tracing.sample_rate", Reason: "must be between 0 and 1"})
	}

	for typeName, collection := range c.Collections {
		if strings.TrimSpace(collection) == "" {
			errs = append(errs, &ConfigurationError{Key: "collections." + typeName, Reason: "collection name is empty"})
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// normalizePolicy lowercases and trims p; blank means suppress.
func normalizePolicy(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return InsertFailureSuppress
	}
	return p
}
