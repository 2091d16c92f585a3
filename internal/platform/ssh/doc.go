// Package ssh runs commands on cluster machines over SSH.
//
// Machines are addressed by name; a Resolver maps names to addresses so
// that any provisioner can be used. Dialing retries with backoff because
// freshly created machines take a while to accept connections.
package ssh
