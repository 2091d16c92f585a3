// Package attributes builds the per-machine configuration payload handed to
// the provisioner and the configuration engine.
package attributes

import (
	"context"
	"encoding/json"
	"path"

	"github.com/imamik/hacluster/internal/config"
)

// Logger is the logging surface the composer needs.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Credentials are provider access keys.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// CredentialSource loads a provider's default credentials.
type CredentialSource interface {
	LoadDefault(ctx context.Context, provider string) (Credentials, error)
}

// Attributes is the full payload for one machine.
type Attributes struct {
	Product Product        `json:"product"`
	RootSSH map[string]any `json:"root_ssh,omitempty"`
	Cloud   *Cloud         `json:"cloud,omitempty"`
}

// Product carries the cluster topology and installer locations.
type Product struct {
	Backends  config.Machines `json:"backends"`
	Frontends config.Machines `json:"frontends"`

	InstallerFile          *string `json:"installer_file"`
	ManageInstallerFile    *string `json:"manage_installer_file,omitempty"`
	ReportingInstallerFile *string `json:"reporting_installer_file"`
	PushJobsInstallerFile  *string `json:"pushy_installer_file"`

	// Configuration overrides product settings on the machine.
	Configuration map[string]any `json:"configuration,omitempty"`
}

// Cloud is the provider section plus resolved credentials.
type Cloud struct {
	Provider           string
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	BackendStorageType string
	Extra              map[string]any
}

// MarshalJSON flattens Extra next to the known keys, known keys winning.
func (c Cloud) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+5)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["provider"] = c.Provider
	setIfNotEmpty(out, "region", c.Region)
	setIfNotEmpty(out, "aws_access_key_id", c.AccessKeyID)
	setIfNotEmpty(out, "aws_secret_access_key", c.SecretAccessKey)
	setIfNotEmpty(out, "backend_storage_type", c.BackendStorageType)
	return json.Marshal(out)
}

// Options select what Compose includes.
type Options struct {
	// Package overrides the default installer for this machine.
	Package string

	// WithCloud adds the provider section and credentials.
	WithCloud bool
}

// Composer builds attributes from a cluster definition.
type Composer struct {
	cfg         *config.Config
	credentials CredentialSource
	logger      Logger
}

// NewComposer creates a composer. credentials may be nil, in which case
// missing provider credentials stay empty.
func NewComposer(cfg *config.Config, credentials CredentialSource, logger Logger) *Composer {
	return &Composer{cfg: cfg, credentials: credentials, logger: logger}
}

// Compose returns the attributes for one machine.
func (c *Composer) Compose(ctx context.Context, opts Options) Attributes {
	attrs := Attributes{
		Product: c.Product(opts.Package),
		RootSSH: c.cfg.RootSSH,
	}
	if opts.WithCloud {
		cloud := c.Cloud(ctx)
		attrs.Cloud = &cloud
	}
	return attrs
}

// Product resolves installer locations. A non-empty override replaces the
// default package.
func (c *Composer) Product(override string) Product {
	pkgs := c.cfg.Packages
	mount := c.cfg.MountPoint

	core := pkgs.Default
	if override != "" {
		core = override
	}

	product := Product{
		Backends:               c.cfg.VMConfig.Backends,
		Frontends:              c.cfg.VMConfig.Frontends,
		InstallerFile:          InstallerPath(mount, core),
		ReportingInstallerFile: InstallerPath(mount, pkgs.Reporting),
		PushJobsInstallerFile:  InstallerPath(mount, pkgs.PushJobs),
	}

	// The management add-on replaces the built-in web console.
	if manage := InstallerPath(mount, pkgs.Manage); manage != nil {
		product.ManageInstallerFile = manage
		product.Configuration = map[string]any{
			"webui": map[string]any{"enable": false},
		}
	}

	return product
}

// Cloud returns the selected provider section. For ec2, credentials that are
// not set explicitly are taken from the default credential source. Failures
// there are logged and left for the provisioning call to surface.
func (c *Composer) Cloud(ctx context.Context) Cloud {
	section := c.cfg.Cloud()
	cloud := Cloud{
		Provider:           section.Provider,
		Region:             section.Region,
		AccessKeyID:        section.AccessKeyID,
		SecretAccessKey:    section.SecretAccessKey,
		BackendStorageType: section.BackendStorageType,
		Extra:              section.Extra,
	}

	if cloud.Provider != config.ProviderEC2 || c.credentials == nil {
		return cloud
	}
	if cloud.AccessKeyID != "" && cloud.SecretAccessKey != "" {
		return cloud
	}

	creds, err := c.credentials.LoadDefault(ctx, cloud.Provider)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("[attributes] default %s credentials unavailable: %v", cloud.Provider, err)
		}
		return cloud
	}
	if cloud.AccessKeyID == "" {
		cloud.AccessKeyID = creds.AccessKeyID
	}
	if cloud.SecretAccessKey == "" {
		cloud.SecretAccessKey = creds.SecretAccessKey
	}
	return cloud
}

// InstallerPath resolves a package location. Absolute URLs are returned
// unchanged, relative paths are joined with mountPoint and an empty location
// yields nil.
func InstallerPath(mountPoint, location string) *string {
	if location == "" {
		return nil
	}
	if config.IsAbsoluteLocator(location) {
		return &location
	}
	resolved := path.Join(mountPoint, location)
	return &resolved
}

func setIfNotEmpty(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
