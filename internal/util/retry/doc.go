// Package retry retries an operation with exponential backoff.
//
// It is used for transport readiness only, such as dialing SSH on a machine
// that is still booting. Lifecycle commands themselves are never retried.
package retry
