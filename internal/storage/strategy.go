package storage

import "github.com/imamik/hacluster/internal/config"

// Fixed host paths.
const (
	// MarkerPath exists once the replicated storage has been initialized.
	MarkerPath = "/var/opt/hacluster/storage/storage_ready"

	// HelperPath is where the failover helper for the cloud path lives.
	HelperPath = "/var/opt/hacluster/keepalived/bin/custom_backend_storage"
	// HelperMode is the file mode of the helper script.
	HelperMode = "0700"
)

// Path is a storage strategy.
type Path string

const (
	// PathCloudReplicated uses a provider-replicated shared block volume.
	PathCloudReplicated Path = "cloud-replicated"
	// PathTraditional uses local block replication between backends.
	PathTraditional Path = "traditional"
)

// Decision is the outcome of Select.
type Decision struct {
	Path Path

	// ProvisionVolume is set on the cloud path when the host is a
	// configured backend and the ready marker is absent.
	ProvisionVolume bool

	// InstallHelper is set whenever the cloud path is chosen.
	InstallHelper bool
}

// UsesCloudStorage reports whether the provider section selects the cloud
// replicated path.
func UsesCloudStorage(cloud config.CloudConfig) bool {
	return cloud.Provider == config.ProviderEC2 && cloud.BackendStorageType == config.StorageEBS
}

// Select decides the storage strategy for a host.
func Select(cloud config.CloudConfig, isBackend, markerPresent bool) Decision {
	if !UsesCloudStorage(cloud) {
		return Decision{Path: PathTraditional}
	}
	return Decision{
		Path:            PathCloudReplicated,
		ProvisionVolume: isBackend && !markerPresent,
		InstallHelper:   true,
	}
}

// String implements fmt.Stringer.
func (d Decision) String() string {
	if d.Path == PathTraditional {
		return string(d.Path)
	}
	s := string(d.Path)
	if d.ProvisionVolume {
		s += "+volume"
	}
	if d.InstallHelper {
		s += "+helper"
	}
	return s
}
