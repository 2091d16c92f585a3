// Package naming provides consistent names for provider resources.
//
// Machines keep the names given in the cluster definition. Shared
// resources are named {cluster}-{type}.
package naming
