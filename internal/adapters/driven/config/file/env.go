package file

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure EnvStore implements the interface.
var _ driven.ConfigStore = (*EnvStore)(nil)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SERCHA_RAG_"

// envAliases are conventional variable names honoured when the prefixed
// name is unset.
var envAliases = map[string]string{
	"embedding.api_key": "OPENAI_API_KEY",
}

// EnvName returns the environment variable that overrides key,
// e.g. embedding.base_url -> SERCHA_RAG_EMBEDDING_BASE_URL.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set.
// Missing files are skipped; with no paths, ./.env is tried.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// EnvStore overlays environment variables on another config store.
// Reads prefer the environment; writes go to the underlying store.
type EnvStore struct {
	base   driven.ConfigStore
	lookup func(string) (string, bool)
}

// NewEnvStore wraps base with environment overrides.
func NewEnvStore(base driven.ConfigStore) *EnvStore {
	return &EnvStore{base: base, lookup: os.LookupEnv}
}

func (s *EnvStore) env(key string) (string, bool) {
	if v, ok := s.lookup(EnvName(key)); ok {
		return v, true
	}
	if alias, ok := envAliases[key]; ok {
		return s.lookup(alias)
	}
	return "", false
}

// Get returns the environment value as a string when set.
func (s *EnvStore) Get(key string) (any, bool) {
	if v, ok := s.env(key); ok {
		return v, true
	}
	return s.base.Get(key)
}

// GetString retrieves a string configuration value.
func (s *EnvStore) GetString(key string) string {
	if v, ok := s.env(key); ok {
		return v
	}
	return s.base.GetString(key)
}

// GetInt retrieves an integer configuration value.
// An unparsable environment value reads as 0.
func (s *EnvStore) GetInt(key string) int {
	if v, ok := s.env(key); ok {
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return s.base.GetInt(key)
}

// GetBool retrieves a boolean configuration value.
func (s *EnvStore) GetBool(key string) bool {
	if v, ok := s.env(key); ok {
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return s.base.GetBool(key)
}

// GetStringSlice splits comma-separated environment values.
func (s *EnvStore) GetStringSlice(key string) []string {
	if v, ok := s.env(key); ok {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return s.base.GetStringSlice(key)
}

// Set stores a value in the underlying store.
func (s *EnvStore) Set(key string, value any) error {
	return s.base.Set(key, value)
}

// Save persists the underlying store.
func (s *EnvStore) Save() error {
	return s.base.Save()
}

// Load reloads the underlying store.
func (s *EnvStore) Load() error {
	return s.base.Load()
}

// Path returns the underlying store's path.
func (s *EnvStore) Path() string {
	return s.base.Path()
}
