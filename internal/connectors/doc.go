// Package connectors provides implementations of the FileSource interface.
// Each connector knows how to find and watch documents in a specific place;
// the filesystem connector walks and watches a local directory tree.
package connectors
