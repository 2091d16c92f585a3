// Package lifecycle implements the four cluster lifecycle actions.
//
// # Actions
//
//   - create: pre-register machines with a provisioner that needs identity
//     and address before use (ec2 only); skips machines the registry already
//     knows.
//   - install: ensure each machine and apply the role-specific configuration
//     modules synchronously; backends set up storage between host setup and
//     replication.
//   - stop-except-master: stop the product on every machine but the
//     bootstrap backend.
//   - destroy: delete every machine.
//
// # Core Types
//
// A Planner turns the cluster definition into an ordered list of Commands.
// An Executor runs commands against the Provisioner, Engine and
// StorageApplier collaborators, one at a time, stopping at the first
// failure. The Dispatcher ties both together and reports through an
// Observer.
package lifecycle
