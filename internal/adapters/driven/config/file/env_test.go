package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnvStore(t *testing.T, env map[string]string) (*EnvStore, *ConfigStore) {
	t.Helper()
	base, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	s := NewEnvStore(base)
	s.lookup = func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
	return s, base
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "SERCHA_RAG_EMBEDDING_BASE_URL", EnvName("embedding.base_url"))
	assert.Equal(t, "SERCHA_RAG_STORE_NLIST", EnvName("store.nlist"))
}

func TestEnvStore_Overrides(t *testing.T) {
	s, base := newEnvStore(t, map[string]string{
		"SERCHA_RAG_EMBEDDING_PROVIDER":            "ollama",
		"SERCHA_RAG_STORE_NLIST":                   " 64 ",
		"SERCHA_RAG_INGEST_REPLACE_EXISTING":       "true",
		"SERCHA_RAG_INGEST_EXTENSIONS":             ".txt, .pdf,",
		"SERCHA_RAG_EMBEDDING_REQUESTS_PER_SECOND": "0.5",
	})
	require.NoError(t, base.Set("embedding.provider", "openai"))
	require.NoError(t, base.Set("store.nprobe", 4))

	assert.Equal(t, "ollama", s.GetString("embedding.provider"))
	assert.Equal(t, 64, s.GetInt("store.nlist"))
	assert.True(t, s.GetBool("ingest.replace_existing"))
	assert.Equal(t, []string{".txt", ".pdf"}, s.GetStringSlice("ingest.extensions"))

	v, ok := s.Get("embedding.requests_per_second")
	assert.True(t, ok)
	assert.Equal(t, "0.5", v)

	// Unset variables fall through to the file.
	assert.Equal(t, 4, s.GetInt("store.nprobe"))
}

func TestEnvStore_Alias(t *testing.T) {
	s, _ := newEnvStore(t, map[string]string{"OPENAI_API_KEY": "sk-test"})
	assert.Equal(t, "sk-test", s.GetString("embedding.api_key"))

	s, _ = newEnvStore(t, map[string]string{
		"OPENAI_API_KEY":               "sk-test",
		"SERCHA_RAG_EMBEDDING_API_KEY": "sk-prefixed",
	})
	assert.Equal(t, "sk-prefixed", s.GetString("embedding.api_key"))
}

func TestEnvStore_InvalidNumber(t *testing.T) {
	s, _ := newEnvStore(t, map[string]string{"SERCHA_RAG_STORE_NLIST": "many"})
	assert.Equal(t, 0, s.GetInt("store.nlist"))
}

func TestEnvStore_WritesGoToBase(t *testing.T) {
	s, base := newEnvStore(t, nil)

	require.NoError(t, s.Set("retrieval.limit", 7))
	assert.Equal(t, 7, base.GetInt("retrieval.limit"))
	assert.Equal(t, base.Path(), s.Path())
	require.NoError(t, s.Save())
	require.NoError(t, s.Load())
	assert.Equal(t, 7, s.GetInt("retrieval.limit"))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERCHA_RAG_TEST_DOTENV=from-file\n"), 0600))
	t.Setenv("SERCHA_RAG_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("SERCHA_RAG_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("SERCHA_RAG_TEST_DOTENV"))
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERCHA_RAG_TEST_KEEP=from-file\n"), 0600))
	t.Setenv("SERCHA_RAG_TEST_KEEP", "from-env")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv("SERCHA_RAG_TEST_KEEP"))
}
