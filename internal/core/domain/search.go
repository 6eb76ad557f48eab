package domain

// Retrieval defaults.
const (
	// DefaultSearchLimit is the number of chunks retrieved when no limit is given.
	DefaultSearchLimit = 5

	// ShortQueryTokens is the whitespace-token count below which a follow-up
	// question is combined with the previous user message.
	ShortQueryTokens = 15

	// ContextSeparator joins retrieved chunks into a grounding context.
	ContextSeparator = "\n\n"
)

// SearchOptions configures a retrieval request.
type SearchOptions struct {
	// Limit is the maximum number of results.
	Limit int

	// TenantID restricts results to one tenant.
	TenantID string
}

// WithDefaults returns a copy with a positive limit and a resolved tenant.
// A negative limit is kept so callers can ask for nothing.
func (o SearchOptions) WithDefaults() SearchOptions {
	if o.Limit == 0 {
		o.Limit = DefaultSearchLimit
	}
	o.TenantID = TenantOrDefault(o.TenantID)
	return o
}
