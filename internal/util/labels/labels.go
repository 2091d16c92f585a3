package labels

// Label keys.
const (
	// KeyCluster identifies which cluster a resource belongs to
	KeyCluster = "hacluster.io/cluster"

	// KeyRole identifies the tier of a machine (backend, frontend)
	KeyRole = "hacluster.io/role"

	// KeyMachine is the machine name from the cluster definition
	KeyMachine = "hacluster.io/machine"

	// KeyVolume identifies a shared storage volume
	KeyVolume = "hacluster.io/volume"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "hacluster.io/managed-by"
)

// ManagedBy is the value of KeyManagedBy.
const ManagedBy = "hacluster"

// LabelBuilder builds a label set.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a builder with the cluster name pre-set.
func NewLabelBuilder(clusterName string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyCluster:   clusterName,
			KeyManagedBy: ManagedBy,
		},
	}
}

// WithRole adds the machine tier.
func (lb *LabelBuilder) WithRole(role string) *LabelBuilder {
	if role != "" {
		lb.labels[KeyRole] = role
	}
	return lb
}

// WithMachine adds the machine name.
func (lb *LabelBuilder) WithMachine(name string) *LabelBuilder {
	lb.labels[KeyMachine] = name
	return lb
}

// WithVolume adds the shared volume name.
func (lb *LabelBuilder) WithVolume(name string) *LabelBuilder {
	lb.labels[KeyVolume] = name
	return lb
}

// Merge adds all labels from the provided map. Keys already set by the
// builder are not overwritten.
func (lb *LabelBuilder) Merge(extra map[string]string) *LabelBuilder {
	for k, v := range extra {
		if _, exists := lb.labels[k]; !exists {
			lb.labels[k] = v
		}
	}
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}
