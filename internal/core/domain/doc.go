// Package domain contains the core business entities for the retrieval
// pipeline: chunks, vector records, index entries, search results,
// confidence scores and conversations. These are pure domain objects with
// no knowledge of storage or external services.
package domain
