// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding and completion collaborators,
// entity detection, record and conversation persistence, prompt templates
// and text extraction.
package driven
