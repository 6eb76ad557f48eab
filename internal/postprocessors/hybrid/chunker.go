// Package hybrid provides a structure-aware, token-bounded chunker.
//
// Headings open sections whose path ("Claims > Appeals") prefixes every
// chunk below them. Consecutive small units of one section and page are
// merged up to the token budget; oversized units are windowed with a token
// overlap, and tables are split between rows with the header row repeated.
package hybrid

import (
	"context"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

const (
	// DefaultMaxTokens is the per-chunk token budget.
	DefaultMaxTokens = 512

	// DefaultOverlap is the number of tokens carried between windows.
	DefaultOverlap = 50

	sectionSep = " > "
)

// Chunker splits content along structural boundaries.
type Chunker struct {
	maxTokens int
	overlap   int
	tokenizer driven.Tokenizer
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxTokens sets the per-chunk token budget.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithOverlap sets the token overlap between windows of one unit.
func WithOverlap(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// WithTokenizer replaces the default WordPieceTokenizer.
func WithTokenizer(t driven.Tokenizer) Option {
	return func(c *Chunker) {
		if t != nil {
			c.tokenizer = t
		}
	}
}

// New creates a hybrid chunker.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxTokens: DefaultMaxTokens,
		overlap:   DefaultOverlap,
		tokenizer: WordPieceTokenizer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.maxTokens {
		c.overlap = c.maxTokens / 4
	}
	return c
}

// Name returns the chunker name.
func (c *Chunker) Name() string {
	return "hybrid"
}

// MaxTokens returns the per-chunk token budget.
func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// unit is the smallest piece the merger works with.
type unit struct {
	text    string
	page    int
	section string
	rows    [][]string
}

// ChunkPlain segments text on blank-line paragraphs.
func (c *Chunker) ChunkPlain(_ context.Context, text string) ([]domain.Chunk, error) {
	var units []unit
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			units = append(units, unit{text: para})
		}
	}
	return c.pack(units), nil
}

// ChunkStructured segments a document tree.
func (c *Chunker) ChunkStructured(_ context.Context, doc *domain.StructuredDocument) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, nil
	}

	var (
		units    []unit
		headings []domain.Element
		pending  bool
		last     domain.Element
	)
	section := func() string {
		parts := make([]string, len(headings))
		for i, h := range headings {
			parts[i] = h.Text
		}
		return strings.Join(parts, sectionSep)
	}
	// A heading with nothing beneath it still yields its own section chunk.
	flushHeading := func() {
		if pending {
			units = append(units, unit{page: last.Page, section: section()})
			pending = false
		}
	}

	for _, el := range doc.Elements {
		text := strings.TrimSpace(el.Text)
		if el.Kind == domain.ElementHeading {
			if text == "" {
				continue
			}
			flushHeading()
			level := el.Level
			if level <= 0 {
				level = 1
			}
			for len(headings) > 0 && headings[len(headings)-1].Level >= level {
				headings = headings[:len(headings)-1]
			}
			el.Level = level
			el.Text = text
			headings = append(headings, el)
			pending, last = true, el
			continue
		}

		u := unit{text: text, page: el.Page, section: section()}
		if el.Kind == domain.ElementTable && len(el.Rows) > 0 {
			u.rows = el.Rows
			u.text = domain.SerializeTable(el.Rows)
		}
		if strings.TrimSpace(u.text) == "" {
			continue
		}
		pending = false
		units = append(units, u)
	}
	flushHeading()
	return c.pack(units), nil
}

// pack merges and splits units into chunks within the token budget.
func (c *Chunker) pack(units []unit) []domain.Chunk {
	var (
		chunks []domain.Chunk
		body   []string
		cost   int
		cur    unit
		prefix string
	)
	emit := func(section string, page int, text string) {
		chunks = append(chunks, domain.Chunk{
			Text:     render(section, text),
			Page:     page,
			Section:  section,
			Position: len(chunks),
		})
	}
	flush := func() {
		if len(body) > 0 {
			emit(prefix, cur.page, strings.Join(body, "\n"))
		}
		body, cost = nil, 0
	}

	for _, u := range units {
		p := c.prefix(u.section)
		budget := c.maxTokens - c.tokenizer.Count(p)

		if u.text == "" {
			flush()
			if p != "" {
				emit(p, u.page, "")
			}
			continue
		}

		n := c.tokenizer.Count(u.text)
		if n > budget {
			flush()
			for _, part := range c.split(u, budget) {
				emit(p, u.page, part)
			}
			continue
		}

		if len(body) > 0 && (u.section != cur.section || u.page != cur.page || cost+n > budget) {
			flush()
		}
		if len(body) == 0 {
			cur, prefix = u, p
		}
		body = append(body, u.text)
		cost += n
	}
	flush()
	return chunks
}

// prefix shortens a section path until it fits in half the budget.
func (c *Chunker) prefix(section string) string {
	limit := c.maxTokens / 2
	if section == "" || c.tokenizer.Count(section) <= limit {
		return section
	}
	if i := strings.LastIndex(section, sectionSep); i >= 0 {
		section = section[i+len(sectionSep):]
	}
	if c.tokenizer.Count(section) <= limit {
		return section
	}
	return ""
}

func (c *Chunker) split(u unit, budget int) []string {
	if len(u.rows) > 1 {
		return c.splitTable(u.rows, budget)
	}
	return c.window(u.text, budget)
}

// splitTable groups rows under budget, repeating the header row.
func (c *Chunker) splitTable(rows [][]string, budget int) []string {
	header := domain.SerializeTable(rows[:1])
	headerCost := c.tokenizer.Count(header)
	if headerCost*2 > budget {
		return c.window(domain.SerializeTable(rows), budget)
	}

	var (
		out   []string
		group []string
		cost  = headerCost
	)
	flush := func() {
		if len(group) > 0 {
			out = append(out, header+"\n"+strings.Join(group, "\n"))
		}
		group, cost = nil, headerCost
	}
	for _, row := range rows[1:] {
		line := domain.SerializeTable([][]string{row})
		n := c.tokenizer.Count(line)
		if headerCost+n > budget {
			flush()
			for _, part := range c.window(line, budget-headerCost) {
				out = append(out, header+"\n"+part)
			}
			continue
		}
		if cost+n > budget {
			flush()
		}
		group = append(group, line)
		cost += n
	}
	flush()
	return out
}

// window cuts text into word windows of at most budget tokens, each new
// window starting with up to overlap tokens from the end of the previous one.
// A single word over budget is emitted on its own. Windows are slices of text,
// so line breaks inside a window survive.
func (c *Chunker) window(text string, budget int) []string {
	words := c.tokenizer.Split(text)
	var out []string
	for start := 0; start < len(words); {
		end, cost := start, 0
		for end < len(words) && (end == start || cost+words[end].Cost <= budget) {
			cost += words[end].Cost
			end++
		}
		out = append(out, slice(text, words[start:end]))
		if end >= len(words) {
			break
		}

		back, carried := end, 0
		for back > start+1 && carried+words[back-1].Cost <= c.overlap {
			back--
			carried += words[back].Cost
		}
		start = back
	}
	return out
}

// slice returns the span of text covered by tokens. Tokenizers that report no
// offsets get their words joined by single spaces.
func slice(text string, tokens []driven.Token) string {
	first, last := tokens[0], tokens[len(tokens)-1]
	if first.Start < last.End && last.End <= len(text) && text[first.Start:first.End] == first.Text {
		return text[first.Start:last.End]
	}
	return joinTokens(tokens)
}

func joinTokens(tokens []driven.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

func render(section, body string) string {
	switch {
	case section == "":
		return body
	case body == "":
		return section
	default:
		return section + "\n" + body
	}
}
