// Package mcp provides an MCP (Model Context Protocol) server adapter.
// It lets AI assistants search tenant collections and request ingestion.
package mcp

import "errors"

var (
	// ErrMissingRetrievalService is returned when the retrieval service is not provided.
	ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")

	// ErrIngestUnavailable is returned when ingestion is requested but not wired.
	ErrIngestUnavailable = errors.New("mcp: ingestion is not available")

	// ErrJobsUnavailable is returned when a job operation is requested but not wired.
	ErrJobsUnavailable = errors.New("mcp: background jobs are not available")
)
