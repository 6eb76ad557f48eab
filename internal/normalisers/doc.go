// Package normalisers turns source files into ExtractedContent.
//
// The Registry dispatches on file extension, resolving each file once into
// one of the content variants: plain text (txt, json) or a structured
// document tree (md, html, eml, docx, pdf). Each format lives in its own
// subpackage and implements driven.Converter.
package normalisers
