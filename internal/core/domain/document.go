package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTenant is the shared bucket for records and searches without an explicit tenant.
const DefaultTenant = "default_tenant"

// Metadata defaults applied when ingesting from the local filesystem.
const (
	DefaultSourceSystem      = "local_filesystem"
	DefaultLanguage          = "en"
	DefaultVersion           = "1.0"
	DefaultAccessPermissions = "role:customer_service"
)

// TenantOrDefault returns tenant, or DefaultTenant when tenant is blank.
func TenantOrDefault(tenant string) string {
	tenant = strings.TrimSpace(tenant)
	if tenant == "" {
		return DefaultTenant
	}
	return tenant
}

// DocumentMetadata holds the attributes shared by every record of one document.
// It is created at ingestion start and is immutable once stored.
type DocumentMetadata struct {
	// DocumentID is the stable identifier, derived from the filename.
	DocumentID string

	// TenantID is the isolation boundary the document belongs to.
	TenantID string

	// Source is the human-facing source name or URL.
	Source string

	// Path is the location the document was read from.
	Path string

	// SourceSystem tags the system the document came from.
	SourceSystem string

	// Language is the document language code.
	Language string

	// Version is the content version.
	Version string

	// LastModified is the source modification time.
	LastModified time.Time

	// AccessPermissions is the access-permission tag.
	AccessPermissions string

	// Page is the default page locator for records without their own.
	Page int
}

// WithDefaults returns a copy with blank fields filled from the package defaults.
func (m DocumentMetadata) WithDefaults() DocumentMetadata {
	m.TenantID = TenantOrDefault(m.TenantID)
	if m.Source == "" {
		m.Source = m.DocumentID
	}
	if m.SourceSystem == "" {
		m.SourceSystem = DefaultSourceSystem
	}
	if m.Language == "" {
		m.Language = DefaultLanguage
	}
	if m.Version == "" {
		m.Version = DefaultVersion
	}
	if m.AccessPermissions == "" {
		m.AccessPermissions = DefaultAccessPermissions
	}
	return m
}

// Validate checks the invariants every stored record relies on.
func (m DocumentMetadata) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return fmt.Errorf("%w: tenant id is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(m.DocumentID) == "" {
		return fmt.Errorf("%w: document id is empty", ErrInvalidInput)
	}
	return nil
}

// Chunk is a bounded span of text derived from one document.
// Chunks are never mutated after the chunker produces them.
type Chunk struct {
	// Text is the content that gets embedded and returned by search.
	Text string

	// Page is the 1-based page locator, 0 when unknown.
	Page int

	// Section is the heading path the chunk was found under.
	Section string

	// DocumentID is a back-reference to the parent document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int
}

// Texts projects chunks to their text content, preserving order.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// VectorRecord is the materialised tuple stored in a collection.
// Every record belongs to exactly one tenant.
type VectorRecord struct {
	ID                int64
	Embedding         []float32
	Text              string
	TenantID          string
	DocumentID        string
	Source            string
	SourceSystem      string
	Language          string
	Version           string
	LastModified      int64
	AccessPermissions string
	Page              int

	// Path is where the document was read from. With DocumentID it
	// identifies the records replaced on re-ingestion.
	Path string
}

// SearchHit is a record returned by a nearest-neighbour search.
type SearchHit struct {
	Record VectorRecord

	// Distance is the squared Euclidean distance to the query vector.
	Distance float64
}

// CollectionStats summarises a collection.
type CollectionStats struct {
	Name          string
	Dimension     int
	SchemaVersion int
	Metric        string
	IndexType     string
	NList         int
	Trained       bool
	Records       int
	Tenants       map[string]int
}
