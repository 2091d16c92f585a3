package config

// Config is the cluster definition for a single orchestrator run.
type Config struct {
	// Name identifies the cluster in provider labels and tags.
	Name string `yaml:"name"`

	// Provider selects the compute provisioner ("ec2" or "hcloud").
	Provider string `yaml:"provider"`

	VMConfig VMConfig `yaml:"vm_config"`

	// ProvisionerOptions holds per-machine provisioner settings keyed by machine name.
	ProvisionerOptions map[string]MachineOptions `yaml:"provisioner_options"`

	Packages PackageSet `yaml:",inline"`

	// MountPoint is where relative package paths are found on the machines.
	MountPoint string `yaml:"vm_mountpoint"`

	// RootSSH is handed to every machine as-is.
	RootSSH map[string]any `yaml:"root_ssh"`

	// Provider sections. Only the one named by Provider is used, see Cloud.
	EC2    CloudConfig `yaml:"ec2"`
	HCloud CloudConfig `yaml:"hcloud"`

	Registry RegistryConfig `yaml:"registry"`
	SSH      SSHConfig      `yaml:"ssh"`
	Engine   EngineConfig   `yaml:"engine"`
	Control  ControlConfig  `yaml:"control"`
}

// VMConfig lists the machines of both tiers.
type VMConfig struct {
	Backends  Machines `yaml:"backends"`
	Frontends Machines `yaml:"frontends"`
}

// PackageSet holds installer locations. Each entry is empty (absent), an
// absolute URL, or a path relative to the mount point.
type PackageSet struct {
	Default   string `yaml:"default_package"`
	Manage    string `yaml:"manage_package"`
	Reporting string `yaml:"reporting_package"`
	PushJobs  string `yaml:"pushy_package"`
}

// CloudConfig is a provider section. Credentials left empty are filled from
// the provider's default credential source when attributes are composed.
type CloudConfig struct {
	// Provider is set from Config.Provider when the section is selected.
	Provider string `yaml:"-"`

	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"aws_access_key_id"`
	SecretAccessKey string `yaml:"aws_secret_access_key"`
	Profile         string `yaml:"profile"`
	Token           string `yaml:"token"`

	// BackendStorageType selects the replicated storage path ("ebs" or "drbd").
	BackendStorageType string `yaml:"backend_storage_type"`

	// Shared EBS volume settings, used when BackendStorageType is "ebs".
	VolumeType string `yaml:"ebs_volume_type"`
	VolumeSize int32  `yaml:"ebs_volume_size"`
	VolumeIOPS int32  `yaml:"ebs_volume_iops"`
	Device     string `yaml:"ebs_device"`

	// Extra keeps provider keys not modelled above.
	Extra map[string]any `yaml:",inline"`
}

// MachineOptions configures how the provisioner builds a single machine.
type MachineOptions struct {
	Image            string            `yaml:"image"`
	Type             string            `yaml:"type"`
	Location         string            `yaml:"location"`
	SSHKeys          []string          `yaml:"ssh_keys"`
	SubnetID         string            `yaml:"subnet_id"`
	SecurityGroupIDs []string          `yaml:"security_group_ids"`
	Labels           map[string]string `yaml:"labels"`
}

// RegistryConfig points at the node inventory service.
type RegistryConfig struct {
	Type   string `yaml:"type"`
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// SSHConfig is used for remote execution and configuration runs.
type SSHConfig struct {
	User           string `yaml:"user"`
	Port           int    `yaml:"port"`
	PrivateKeyFile string `yaml:"private_key_file"`
}

// EngineConfig describes how the configuration engine is invoked on a
// machine. Command may contain {attributes} and {modules} placeholders.
type EngineConfig struct {
	Command        string `yaml:"command"`
	AttributesPath string `yaml:"attributes_path"`
}

// ControlConfig names the service control binary installed on every machine.
type ControlConfig struct {
	Command string `yaml:"command"`
}

// Cloud returns the provider section selected by Provider.
func (c *Config) Cloud() CloudConfig {
	var section CloudConfig
	switch c.Provider {
	case ProviderEC2:
		section = c.EC2
	case ProviderHCloud:
		section = c.HCloud
	}
	section.Provider = c.Provider
	return section
}

// AllMachines returns backends followed by frontends.
func (c *Config) AllMachines() Machines {
	all := make(Machines, 0, len(c.VMConfig.Backends)+len(c.VMConfig.Frontends))
	all = append(all, c.VMConfig.Backends...)
	return append(all, c.VMConfig.Frontends...)
}

// IsBackend reports whether name is a configured backend.
func (c *Config) IsBackend(name string) bool {
	return c.VMConfig.Backends.Contains(name)
}

// IsFrontend reports whether name is a configured frontend.
func (c *Config) IsFrontend(name string) bool {
	return c.VMConfig.Frontends.Contains(name)
}

// RoleOf returns the role of a machine, or "" if it is not configured.
func (c *Config) RoleOf(name string) string {
	switch {
	case c.IsBackend(name):
		return RoleBackend
	case c.IsFrontend(name):
		return RoleFrontend
	default:
		return ""
	}
}

// OptionsFor returns the provisioner options of a machine.
func (c *Config) OptionsFor(name string) MachineOptions {
	return c.ProvisionerOptions[name]
}

// applyDefaults fills optional fields that have a sensible default.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = defaultClusterName
	}
	if c.Registry.Type == "" {
		c.Registry.Type = RegistryHTTP
	}
	if c.SSH.User == "" {
		c.SSH.User = defaultSSHUser
	}
	if c.SSH.Port == 0 {
		c.SSH.Port = defaultSSHPort
	}
	if c.Engine.Command == "" {
		c.Engine.Command = defaultEngineCommand
	}
	if c.Engine.AttributesPath == "" {
		c.Engine.AttributesPath = defaultAttributesPath
	}
	if c.Control.Command == "" {
		c.Control.Command = defaultControlCommand
	}
	if c.EC2.VolumeType == "" {
		c.EC2.VolumeType = defaultVolumeType
	}
	if c.EC2.VolumeSize == 0 {
		c.EC2.VolumeSize = defaultVolumeSize
	}
	if c.EC2.VolumeIOPS == 0 {
		c.EC2.VolumeIOPS = defaultVolumeIOPS
	}
	if c.EC2.Device == "" {
		c.EC2.Device = defaultDevice
	}
}
