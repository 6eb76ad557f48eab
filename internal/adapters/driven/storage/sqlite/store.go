package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Index defaults.
const (
	DefaultNList  = 1024
	DefaultNProbe = 10
	DefaultSeed   = 42

	// SchemaVersion is the record table layout this build writes.
	SchemaVersion = 2

	metricL2     = "L2"
	indexIVFFlat = "IVF_FLAT"

	// trainPerList bounds the k-means training sample.
	trainPerList = 32

	connectTimeout = 10 * time.Second

	// timeLayout is fixed width so stored timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Option configures a Store.
type Option func(*Store)

// WithNList sets the number of inverted lists for new collections.
func WithNList(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.nlist = n
		}
	}
}

// WithNProbe sets how many lists a trained search visits.
func WithNProbe(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.nprobe = n
		}
	}
}

// WithSeed sets the k-means seed used by BuildIndex.
func WithSeed(seed uint64) Option {
	return func(s *Store) {
		s.seed = seed
	}
}

// WithTrainIterations sets the k-means iteration count.
func WithTrainIterations(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.iterations = n
		}
	}
}

// collection is the loaded state of one documents_<dim> table.
// It is replaced wholesale, never mutated.
type collection struct {
	name      string
	dim       int
	nlist     int
	trained   bool
	centroids [][]float32
}

// Store is a SQLite-backed vector store and job store.
type Store struct {
	path       string
	nlist      int
	nprobe     int
	seed       uint64
	iterations int

	mu      sync.RWMutex
	db      *sql.DB
	connErr error

	collMu sync.RWMutex
	coll   *collection
}

var (
	_ driven.VectorStore = (*Store)(nil)
	_ driven.JobStore    = (*Store)(nil)
)

// NewStore opens a SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.sercha-rag/data.
//
// Connection failures do not fail construction. They are logged and returned
// as domain.ErrStoreConnection from every later operation until Ping succeeds.
func NewStore(dataDir string, opts ...Option) *Store {
	s := &Store{
		nlist:      DefaultNList,
		nprobe:     DefaultNProbe,
		seed:       DefaultSeed,
		iterations: vecmath.DefaultIterations,
	}
	for _, opt := range opts {
		opt(s)
	}

	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			s.connErr = fmt.Errorf("getting home directory: %w", err)
			logger.Error("vector store: %v", s.connErr)
			return s
		}
		dataDir = filepath.Join(home, ".sercha-rag", "data")
	}
	s.path = filepath.Join(dataDir, "vectors.db")

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		s.connErr = fmt.Errorf("creating data directory: %w", err)
		logger.Error("vector store: %v", s.connErr)
		return s
	}

	if err := s.connect(); err != nil {
		logger.Error("vector store: %v", err)
	}
	return s
}

// connect opens the database and runs migrations. Callers must not hold s.mu.
func (s *Store) connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	// WAL for concurrent readers; a single connection serialises writers.
	db, err := sql.Open("sqlite", s.path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		s.connErr = fmt.Errorf("opening database: %w", err)
		return s.connErr
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		s.connErr = fmt.Errorf("connecting to %s: %w", s.path, err)
		return s.connErr
	}

	if err := migrate(ctx, db, migrations.FS); err != nil {
		db.Close()
		s.connErr = fmt.Errorf("running migrations: %w", err)
		return s.connErr
	}

	s.db = db
	s.connErr = nil
	return nil
}

// conn returns the open database or the stored connection error.
func (s *Store) conn() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		cause := s.connErr
		if cause == nil {
			cause = errors.New("store is closed")
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreConnection, cause)
	}
	return s.db, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping reports whether the database is reachable, reconnecting if a
// previous attempt failed.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		if s.path == "" {
			return err
		}
		if cerr := s.connect(); cerr != nil {
			return fmt.Errorf("%w: %w", domain.ErrStoreConnection, cerr)
		}
		if db, err = s.conn(); err != nil {
			return err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreConnection, err)
	}
	return nil
}

// Ready reports whether the store is serving.
func (s *Store) Ready(ctx context.Context) bool {
	return s.Ping(ctx) == nil
}

// WaitReady pings up to attempts times with a fixed delay between attempts.
// It returns the last error when the store never becomes ready.
func (s *Store) WaitReady(ctx context.Context, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if err = s.Ping(ctx); err == nil {
			return nil
		}
		logger.Warn("vector store not ready (attempt %d/%d): %v", i, attempts, err)
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.connErr = errors.New("store is closed")
	return err
}

// migrate runs all pending migrations.
func migrate(ctx context.Context, db *sql.DB, fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// formatNullableTime formats a UTC timestamp, or returns nil for zero time.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

// parseNullableTime parses a nullable timestamp to time.Time.
// Returns zero time if the string is empty or invalid.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// errString returns the message of err, or "" for nil.
func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// nullBool stores an optional bool as 1, 0 or NULL.
func nullBool(b *bool) any {
	if b == nil {
		return nil
	}
	return boolToInt(*b)
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
