package naming

import (
	"fmt"
	"strings"
)

// SharedVolume is the shared backend storage volume of a cluster.
func SharedVolume(cluster string) string {
	return fmt.Sprintf("%s-backend-storage", cluster)
}

// Hostname turns a machine name into a valid host label: lower case,
// with characters outside [a-z0-9-] replaced by '-'.
func Hostname(machine string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(machine) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
