// Package html provides a Converter for HTML documents.
// It parses the document tree and keeps its structure: headings, paragraphs,
// list items, preformatted blocks and tables become separate elements, while
// scripts, styles and other non-content nodes are dropped.
package html
