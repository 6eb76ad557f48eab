package hybrid

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure WordPieceTokenizer implements the interface.
var _ driven.Tokenizer = WordPieceTokenizer{}

// DefaultPieceLen is the average number of runes per sub-word piece.
const DefaultPieceLen = 6

// WordPieceTokenizer approximates a sub-word vocabulary without loading one.
// Each run of letters or digits costs one token per PieceLen runes, rounded
// up, and every other non-space rune costs one token.
type WordPieceTokenizer struct {
	PieceLen int
}

// Count returns the approximate model token count of text.
func (t WordPieceTokenizer) Count(text string) int {
	n := 0
	for _, word := range strings.Fields(text) {
		n += t.cost(word)
	}
	return n
}

// Split returns the whitespace-delimited words of text with their costs and
// byte offsets.
func (t WordPieceTokenizer) Split(text string) []driven.Token {
	var out []driven.Token
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, t.token(text, start, i))
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, t.token(text, start, len(text)))
	}
	return out
}

func (t WordPieceTokenizer) token(text string, start, end int) driven.Token {
	w := text[start:end]
	return driven.Token{Text: w, Cost: t.cost(w), Start: start, End: end}
}

func (t WordPieceTokenizer) cost(word string) int {
	piece := t.PieceLen
	if piece <= 0 {
		piece = DefaultPieceLen
	}

	cost, run := 0, 0
	flush := func() {
		if run > 0 {
			cost += (run + piece - 1) / piece
			run = 0
		}
	}
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			run++
			continue
		}
		flush()
		cost++
	}
	flush()
	return cost
}
