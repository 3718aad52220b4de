// Package services contains the core business logic: chunked document
// ingestion with checkpointed persistence, exhaustive-scan retrieval,
// and the per-query orchestration pipeline with its classifiers and
// confidence model. Services receive their collaborators at construction
// so tests can substitute doubles.
package services
