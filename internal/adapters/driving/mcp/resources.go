package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for sercha-rag resources.
	uriScheme = "sercha-rag://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Collection != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "collection",
			Name:        "collection",
			Description: "Statistics of the vector collection",
			MIMEType:    "application/json",
		}, s.handleCollectionResource)
	}

	if s.ports.Jobs != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "jobs/{jobId}",
			Name:        "job",
			Description: "State of a background ingestion job",
			MIMEType:    "application/json",
		}, s.handleJobResource)
	}
}

// handleCollectionResource returns the collection statistics.
func (s *Server) handleCollectionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Collection.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting collection stats: %w", err)
	}

	type collectionInfo struct {
		Name      string         `json:"name"`
		Dimension int            `json:"dimension"`
		Metric    string         `json:"metric"`
		IndexType string         `json:"index_type"`
		NList     int            `json:"nlist"`
		Trained   bool           `json:"trained"`
		Records   int            `json:"records"`
		Tenants   map[string]int `json:"tenants,omitempty"`
	}

	data, err := json.MarshalIndent(collectionInfo{
		Name:      stats.Name,
		Dimension: stats.Dimension,
		Metric:    stats.Metric,
		IndexType: stats.IndexType,
		NList:     stats.NList,
		Trained:   stats.Trained,
		Records:   stats.Records,
		Tenants:   stats.Tenants,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling collection stats: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleJobResource returns the state of one job.
func (s *Server) handleJobResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	jobID := extractJobID(req.Params.URI)
	if jobID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	_, status, err := s.handleJobStatus(ctx, nil, JobStatusInput{JobID: jobID})
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling job: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractJobID extracts the job ID from a URI like sercha-rag://jobs/{jobId}.
func extractJobID(uri string) string {
	const prefix = uriScheme + "jobs/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
