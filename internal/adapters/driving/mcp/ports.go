package mcp

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server exposes.
type Ports struct {
	// Retrieval answers search and grounding requests. Required.
	Retrieval driving.RetrievalService

	// Ingest runs synchronous ingestion. Optional.
	Ingest driving.IngestionService

	// Jobs runs ingestion in the background. Optional.
	Jobs driving.JobService

	// Collection reports collection statistics. Optional.
	Collection driving.CollectionService

	// Tenant replaces an empty tenant in tool calls. Empty leaves the
	// services to apply the default tenant.
	Tenant string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
