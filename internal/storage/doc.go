// Package storage chooses and applies the replicated storage strategy for
// backend hosts.
//
// On ec2 with backend_storage_type "ebs" backends share a multi-attach EBS
// volume and failover is handled by a helper script installed on the host.
// Everywhere else the local block replication setup is (re)applied on every
// run. The storage-ready marker is read here but written by the setup that
// runs after initialization.
package storage
