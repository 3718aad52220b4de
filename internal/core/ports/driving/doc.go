// Package driving provides interfaces for application entry points
// (primary/inbound ports) exposed to the CLI shell.
package driving
