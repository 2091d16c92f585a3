// Package labels builds the labels and tags put on provider resources.
//
// Keys use the hacluster.io prefix. Hetzner Cloud takes the map as server
// labels, EC2 takes it as resource tags.
package labels
