// Package ec2 implements machine provisioning and shared backend storage on
// Amazon EC2.
//
// Machines are found by their Name tag, scoped to the cluster tag. The
// shared backend volume is a multi-attach EBS volume tagged with the
// cluster's volume name and attached to every backend.
package ec2
