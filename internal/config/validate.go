package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Severity levels for validation findings.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError represents a configuration validation error or warning.
type ValidationError struct {
	Field    string // Configuration field that failed validation
	Message  string // Human-readable error message
	Severity string // "error" or "warning"
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ve.Severity, ve.Field, ve.Message)
}

// IsError returns true if this is an error (not a warning).
func (ve ValidationError) IsError() bool {
	return ve.Severity == SeverityError
}

// Validate returns an error listing every validation error. Warnings do not
// fail validation; use Check to see them.
func (c *Config) Validate() error {
	var msgs []string
	for _, ve := range c.Check() {
		if ve.IsError() {
			msgs = append(msgs, ve.Error())
		}
	}
	if len(msgs) > 0 {
		return fmt.Errorf("%d error(s):\n  %s", len(msgs), strings.Join(msgs, "\n  "))
	}
	return nil
}

// Check runs all validation checks and returns errors and warnings.
func (c *Config) Check() []ValidationError {
	var findings []ValidationError
	findings = append(findings, c.checkProvider()...)
	findings = append(findings, c.checkMachines()...)
	findings = append(findings, c.checkBootstrap()...)
	findings = append(findings, c.checkPackages()...)
	findings = append(findings, c.checkStorage()...)
	findings = append(findings, c.checkRegistry()...)
	findings = append(findings, c.checkProvisionerOptions()...)
	return findings
}

// Warnings returns only the warning findings.
func (c *Config) Warnings() []ValidationError {
	var warnings []ValidationError
	for _, ve := range c.Check() {
		if !ve.IsError() {
			warnings = append(warnings, ve)
		}
	}
	return warnings
}

func (c *Config) checkProvider() []ValidationError {
	switch c.Provider {
	case ProviderEC2, ProviderHCloud:
		return nil
	case "":
		return []ValidationError{errorf("provider", "provider is required")}
	default:
		return []ValidationError{errorf("provider", "unknown provider %q: must be one of [%s %s]", c.Provider, ProviderEC2, ProviderHCloud)}
	}
}

func (c *Config) checkMachines() []ValidationError {
	var findings []ValidationError

	if len(c.VMConfig.Backends) == 0 {
		findings = append(findings, errorf("vm_config.backends", "at least one backend is required"))
	}
	if len(c.VMConfig.Frontends) == 0 {
		findings = append(findings, warnf("vm_config.frontends", "no frontends configured"))
	}

	seen := make(map[string]string)
	check := func(tier string, machines Machines) {
		for _, m := range machines {
			if strings.TrimSpace(m.Name) == "" {
				findings = append(findings, errorf("vm_config."+tier, "machine name cannot be empty"))
				continue
			}
			if prev, dup := seen[m.Name]; dup {
				findings = append(findings, errorf("vm_config."+tier,
					"machine %q is already defined in %s; names must be unique across backends and frontends", m.Name, prev))
				continue
			}
			seen[m.Name] = tier
		}
	}
	check("backends", c.VMConfig.Backends)
	check("frontends", c.VMConfig.Frontends)

	return findings
}

func (c *Config) checkBootstrap() []ValidationError {
	var findings []ValidationError

	var flagged []string
	for _, m := range c.VMConfig.Backends {
		if m.Bootstrap {
			flagged = append(flagged, m.Name)
		}
	}
	switch {
	case len(c.VMConfig.Backends) == 0:
	case len(flagged) == 0:
		findings = append(findings, errorf("vm_config.backends", "exactly one backend must set bootstrap: true, none does"))
	case len(flagged) > 1:
		findings = append(findings, errorf("vm_config.backends",
			"exactly one backend must set bootstrap: true, found %d (%s)", len(flagged), strings.Join(flagged, ", ")))
	}

	for _, m := range c.VMConfig.Frontends {
		if m.Bootstrap {
			findings = append(findings, warnf("vm_config.frontends", "bootstrap flag on frontend %q is ignored", m.Name))
		}
	}
	return findings
}

func (c *Config) checkPackages() []ValidationError {
	var findings []ValidationError

	if c.Packages.Default == "" {
		findings = append(findings, errorf("default_package", "default_package is required"))
	}

	packages := map[string]string{
		"default_package":   c.Packages.Default,
		"manage_package":    c.Packages.Manage,
		"reporting_package": c.Packages.Reporting,
		"pushy_package":     c.Packages.PushJobs,
	}
	for _, field := range sortedKeys(packages) {
		pkg := packages[field]
		if pkg == "" {
			continue
		}
		if _, err := url.Parse(pkg); err != nil {
			findings = append(findings, errorf(field, "invalid package locator %q: %v", pkg, err))
			continue
		}
		if !IsAbsoluteLocator(pkg) && c.MountPoint == "" {
			findings = append(findings, errorf("vm_mountpoint", "%s %q is relative but vm_mountpoint is not set", field, pkg))
		}
	}
	return findings
}

func (c *Config) checkStorage() []ValidationError {
	storage := c.Cloud().BackendStorageType
	switch storage {
	case "", StorageDRBD:
		return nil
	case StorageEBS:
		if c.Provider != ProviderEC2 {
			return []ValidationError{warnf(c.Provider+".backend_storage_type",
				"ebs storage only applies to the %s provider; local replication will be used", ProviderEC2)}
		}
		return nil
	default:
		return []ValidationError{errorf(c.Provider+".backend_storage_type",
			"unknown backend storage type %q: must be one of [%s %s]", storage, StorageEBS, StorageDRBD)}
	}
}

func (c *Config) checkRegistry() []ValidationError {
	switch c.Registry.Type {
	case RegistryHTTP:
		if c.Provider == ProviderEC2 && c.Registry.URL == "" {
			return []ValidationError{errorf("registry.url", "registry.url is required for the %s provider", ProviderEC2)}
		}
	case RegistryS3:
		if c.Registry.Bucket == "" {
			return []ValidationError{errorf("registry.bucket", "registry.bucket is required for the s3 registry")}
		}
	default:
		return []ValidationError{errorf("registry.type", "unknown registry type %q: must be one of [%s %s]",
			c.Registry.Type, RegistryHTTP, RegistryS3)}
	}
	return nil
}

func (c *Config) checkProvisionerOptions() []ValidationError {
	var findings []ValidationError
	all := c.AllMachines()
	for _, name := range sortedKeys(c.ProvisionerOptions) {
		if !all.Contains(name) {
			findings = append(findings, warnf("provisioner_options", "options for unknown machine %q are ignored", name))
		}
	}
	return findings
}

// IsAbsoluteLocator reports whether a package location is an absolute URL
// (it carries a scheme) rather than a path relative to the mount point.
func IsAbsoluteLocator(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return u.IsAbs()
}

func errorf(field, format string, args ...any) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func warnf(field, format string, args ...any) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
