// Package driving defines the interfaces the CLI and the MCP server call
// into: ingestion, background jobs, retrieval, collection administration
// and settings. Every tenant-scoped call takes the tenant explicitly; an
// empty tenant means domain.DefaultTenant.
//
// Implementations live in internal/core/services.
package driving
