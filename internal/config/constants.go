package config

// Supported provisioners.
const (
	ProviderEC2    = "ec2"
	ProviderHCloud = "hcloud"
)

// Backend storage types.
const (
	StorageEBS  = "ebs"
	StorageDRBD = "drbd"
)

// Node registry backends.
const (
	RegistryHTTP = "http"
	RegistryS3   = "s3"
)

// Machine roles.
const (
	RoleBackend  = "backend"
	RoleFrontend = "frontend"
)

const (
	// DefaultConfigFilename is the default cluster definition filename.
	DefaultConfigFilename = "hacluster.yaml"

	defaultClusterName    = "hacluster"
	defaultSSHUser        = "root"
	defaultSSHPort        = 22
	defaultAttributesPath = "/etc/hacluster/attributes.json"
	defaultEngineCommand  = "hacluster-converge --attributes {attributes} --modules {modules}"
	defaultControlCommand = "/opt/hacluster/bin/hacluster-ctl"

	defaultVolumeType = "io2"
	defaultVolumeSize = 100
	defaultVolumeIOPS = 3000
	defaultDevice     = "/dev/xvdf"
)
