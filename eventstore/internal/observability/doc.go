// Package observability instruments commits and reads of the engines with the optional
// logger, contextual logger, metrics collector, and tracing collector they were configured with.
//
// Every hook is a no-op for collaborators that are not configured.
package observability
