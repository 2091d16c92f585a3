// Package hcloud provisions cluster machines as Hetzner Cloud servers.
//
// Servers carry the machine name as their server name and are labeled
// with the cluster, role and machine (see util/labels). Hetzner Cloud
// assigns addresses at creation time, so machines need no pre-registration
// and are created on demand by install.
package hcloud
