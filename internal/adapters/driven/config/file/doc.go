// Package file provides file-based configuration for sercha-rag.
//
// Adapters:
//   - ConfigStore: TOML or YAML settings file, chosen by extension
//   - EnvStore: SERCHA_RAG_* environment overrides over any ConfigStore
//
// LoadDotEnv loads .env files before the environment is read.
package file
