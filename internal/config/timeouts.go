package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	MachineCreate  time.Duration // Timeout for a single machine creation
	Delete         time.Duration // Timeout for a single machine deletion
	Converge       time.Duration // Timeout for one configuration engine run
	Registry       time.Duration // Timeout for a single registry lookup
	SSHMaxRetries  int           // SSH dial attempts against a booting machine
	SSHRetryDelay  time.Duration // Initial delay between SSH dial attempts
	SSHDialTimeout time.Duration // TCP dial timeout for SSH
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - HACLUSTER_TIMEOUT_MACHINE_CREATE (default: 10m)
//   - HACLUSTER_TIMEOUT_DELETE (default: 5m)
//   - HACLUSTER_TIMEOUT_CONVERGE (default: 60m)
//   - HACLUSTER_TIMEOUT_REGISTRY (default: 30s)
//   - HACLUSTER_SSH_MAX_RETRIES (default: 60)
//   - HACLUSTER_SSH_RETRY_DELAY (default: 5s)
//   - HACLUSTER_SSH_DIAL_TIMEOUT (default: 10s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		MachineCreate:  parseDuration("HACLUSTER_TIMEOUT_MACHINE_CREATE", 10*time.Minute),
		Delete:         parseDuration("HACLUSTER_TIMEOUT_DELETE", 5*time.Minute),
		Converge:       parseDuration("HACLUSTER_TIMEOUT_CONVERGE", 60*time.Minute),
		Registry:       parseDuration("HACLUSTER_TIMEOUT_REGISTRY", 30*time.Second),
		SSHMaxRetries:  parseInt("HACLUSTER_SSH_MAX_RETRIES", 60),
		SSHRetryDelay:  parseDuration("HACLUSTER_SSH_RETRY_DELAY", 5*time.Second),
		SSHDialTimeout: parseDuration("HACLUSTER_SSH_DIAL_TIMEOUT", 10*time.Second),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
