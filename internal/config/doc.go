// Package config defines the cluster definition consumed by every lifecycle
// action.
//
// The [Config] struct is read once per run and treated as an immutable
// snapshot. Backend and frontend machine maps are decoded into [Machines],
// which keeps the order the machines appear in the YAML document so that
// every action processes machines deterministically.
package config
