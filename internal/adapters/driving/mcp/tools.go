package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query  string `json:"query" jsonschema:"the text to find similar chunks for"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	Tenant string `json:"tenant,omitempty" jsonschema:"tenant whose documents are searched (default_tenant when empty)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	Page       int     `json:"page,omitempty"`
	Distance   float64 `json:"distance"`
	Content    string  `json:"content"`
}

// MessageInput is one conversation turn.
type MessageInput struct {
	Role    string `json:"role" jsonschema:"user, assistant or system"`
	Content string `json:"content" jsonschema:"the message text"`
}

// ContextInput is the input schema for the context tool.
type ContextInput struct {
	Messages []MessageInput `json:"messages" jsonschema:"the conversation so far, oldest first"`
	Limit    int            `json:"limit,omitempty" jsonschema:"maximum number of chunks (default 5)"`
	Tenant   string         `json:"tenant,omitempty" jsonschema:"tenant whose documents are searched (default_tenant when empty)"`
}

// ContextOutput is the output schema for the context tool.
type ContextOutput struct {
	Query   string `json:"query"`
	Context string `json:"context"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Path      string `json:"path" jsonschema:"file or directory on the server's filesystem"`
	Directory bool   `json:"directory,omitempty" jsonschema:"ingest every supported file below path"`
	Tenant    string `json:"tenant,omitempty" jsonschema:"tenant the records belong to (default_tenant when empty)"`
	Async     bool   `json:"async,omitempty" jsonschema:"submit as a background job and return its id"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	JobID     string   `json:"job_id,omitempty"`
	Succeeded bool     `json:"succeeded"`
	Files     int      `json:"files"`
	Chunks    int      `json:"chunks"`
	Failures  []string `json:"failures,omitempty"`
}

// JobStatusInput is the input schema for the job_status tool.
type JobStatusInput struct {
	JobID string `json:"job_id" jsonschema:"identifier returned by an async ingest"`
}

// JobStatusOutput is the output schema for the job_status tool.
type JobStatusOutput struct {
	JobID    string   `json:"job_id"`
	State    string   `json:"state"`
	Target   string   `json:"target"`
	Tenant   string   `json:"tenant"`
	Error    string   `json:"error,omitempty"`
	Files    int      `json:"files"`
	Chunks   int      `json:"chunks"`
	Failures []string `json:"failures,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
// Ingestion tools are only offered when their ports are wired.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the chunks nearest to a query within one tenant",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "context",
		Description: "Build the grounding context for a conversation",
	}, s.handleContext)

	if s.ports.Ingest != nil || s.ports.Jobs != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Ingest a file or directory for a tenant",
		}, s.handleIngest)
	}

	if s.ports.Jobs != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "job_status",
			Description: "Report the state of a background ingestion job",
		}, s.handleJobStatus)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, errors.New("query is required")
	}

	hits, err := s.ports.Retrieval.RetrieveHits(ctx, input.Query, input.Limit, s.tenant(input.Tenant))
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(hits)),
		Count:   len(hits),
	}

	for i, h := range hits {
		output.Results[i] = SearchResultOutput{
			DocumentID: h.Record.DocumentID,
			Source:     h.Record.Source,
			Page:       h.Record.Page,
			Distance:   h.Distance,
			Content:    h.Record.Text,
		}
	}

	return nil, output, nil
}

// handleContext handles the context tool invocation.
func (s *Server) handleContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ContextInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	messages := make([]domain.Message, len(input.Messages))
	for i, m := range input.Messages {
		messages[i] = domain.Message{Role: strings.ToLower(m.Role), Content: m.Content}
	}

	output := ContextOutput{
		Query:   s.ports.Retrieval.SearchQuery(messages),
		Context: s.ports.Retrieval.GroundingContext(ctx, messages, input.Limit, s.tenant(input.Tenant)),
	}
	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, IngestOutput{}, errors.New("path is required")
	}

	kind := domain.JobKindFile
	if input.Directory {
		kind = domain.JobKindDirectory
	}

	if input.Async {
		if s.ports.Jobs == nil {
			return nil, IngestOutput{}, ErrJobsUnavailable
		}
		id, err := s.ports.Jobs.Submit(ctx, domain.JobRequest{
			Kind:     kind,
			Target:   input.Path,
			TenantID: s.tenant(input.Tenant),
		})
		if err != nil {
			return nil, IngestOutput{}, err
		}
		return nil, IngestOutput{JobID: id, Succeeded: true}, nil
	}

	if s.ports.Ingest == nil {
		return nil, IngestOutput{}, ErrIngestUnavailable
	}

	if kind == domain.JobKindFile {
		res := s.ports.Ingest.IngestFile(ctx, input.Path, s.tenant(input.Tenant))
		if res.Err != nil {
			return nil, IngestOutput{}, fmt.Errorf("ingesting %s: %w", input.Path, res.Err)
		}
		return nil, IngestOutput{Succeeded: true, Files: 1, Chunks: res.Chunks}, nil
	}

	report, err := s.ports.Ingest.IngestDirectory(ctx, input.Path, s.tenant(input.Tenant))
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{
		Succeeded: report.Succeeded,
		Files:     len(report.Files),
		Chunks:    report.Chunks(),
		Failures:  failureStrings(report),
	}, nil
}

// handleJobStatus handles the job_status tool invocation.
func (s *Server) handleJobStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input JobStatusInput,
) (*mcp.CallToolResult, JobStatusOutput, error) {
	if s.ports.Jobs == nil {
		return nil, JobStatusOutput{}, ErrJobsUnavailable
	}

	job, err := s.ports.Jobs.Status(input.JobID)
	if err != nil {
		return nil, JobStatusOutput{}, err
	}

	output := JobStatusOutput{
		JobID:  job.ID,
		State:  string(job.State),
		Target: job.Target,
		Tenant: job.TenantID,
	}
	if job.Err != nil {
		output.Error = job.Err.Error()
	}
	if job.Report != nil {
		output.Files = len(job.Report.Files)
		output.Chunks = job.Report.Chunks()
		output.Failures = failureStrings(job.Report)
	}
	return nil, output, nil
}

func failureStrings(report *domain.IngestReport) []string {
	if len(report.Failures) == 0 {
		return nil
	}
	out := make([]string, len(report.Failures))
	for i, f := range report.Failures {
		out[i] = fmt.Sprintf("%s: %v", f.Path, f.Err)
	}
	return out
}
