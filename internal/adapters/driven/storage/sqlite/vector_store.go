package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// CollectionName returns the record table name for a dimension.
func CollectionName(dimension int) string {
	return fmt.Sprintf("documents_%d", dimension)
}

// createRecordsSQL is the record table layout for SchemaVersion 2.
const createRecordsSQL = `
CREATE TABLE IF NOT EXISTS %[1]s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    embedding BLOB NOT NULL,
    text TEXT NOT NULL CHECK (length(text) <= 65535),
    tenant_id TEXT NOT NULL CHECK (length(tenant_id) BETWEEN 1 AND 64),
    document_id TEXT NOT NULL CHECK (length(document_id) BETWEEN 1 AND 256),
    source TEXT NOT NULL DEFAULT '' CHECK (length(source) <= 512),
    source_system TEXT NOT NULL DEFAULT '' CHECK (length(source_system) <= 64),
    language TEXT NOT NULL DEFAULT '' CHECK (length(language) <= 16),
    version TEXT NOT NULL DEFAULT '' CHECK (length(version) <= 32),
    last_modified INTEGER NOT NULL DEFAULT 0,
    access_permissions TEXT NOT NULL DEFAULT '' CHECK (length(access_permissions) <= 1024),
    page INTEGER NOT NULL DEFAULT 0,
    path TEXT NOT NULL DEFAULT '' CHECK (length(path) <= 4096),
    list_id INTEGER NOT NULL DEFAULT -1
);
CREATE INDEX IF NOT EXISTS idx_tenant_%[2]d ON %[1]s(tenant_id);
CREATE INDEX IF NOT EXISTS idx_list_%[2]d ON %[1]s(tenant_id, list_id);
CREATE INDEX IF NOT EXISTS idx_document_%[2]d ON %[1]s(tenant_id, document_id, path);
`

const recordColumns = `id, embedding, text, tenant_id, document_id, source, source_system,
	language, version, last_modified, access_permissions, page, path`

// snapshot returns the loaded collection, or nil.
func (s *Store) snapshot() *collection {
	s.collMu.RLock()
	defer s.collMu.RUnlock()
	return s.coll
}

func (s *Store) setCollection(c *collection) {
	s.collMu.Lock()
	s.coll = c
	s.collMu.Unlock()
}

// EnsureCollection creates the collection for dimension if missing, otherwise loads it.
// An existing collection whose schema disagrees returns domain.ErrSchemaMismatch.
func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, dimension)
	}
	db, err := s.conn()
	if err != nil {
		return err
	}

	if c := s.snapshot(); c != nil {
		if c.dim == dimension {
			return nil
		}
		return fmt.Errorf("%w: store is bound to %s", domain.ErrSchemaMismatch, c.name)
	}

	name := CollectionName(dimension)
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// A racing creator wins the insert; everyone else loads its row.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO collections (name, dimension, schema_version, metric, index_type, nlist)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, dimension, SchemaVersion, metricL2, indexIVFFlat, s.nlist); err != nil {
		return fmt.Errorf("registering collection %s: %w", name, err)
	}

	c, err := loadCollection(ctx, tx, name)
	if err != nil {
		return err
	}
	if err := s.verify(c, dimension); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(createRecordsSQL, name, dimension)); err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing collection %s: %w", name, err)
	}

	s.collMu.Lock()
	defer s.collMu.Unlock()
	if s.coll == nil {
		s.coll = c.collection
		logger.Debug("vector store: loaded %s (dim=%d, nlist=%d, trained=%v)", c.name, c.dim, c.nlist, c.trained)
	}
	return nil
}

// verify compares a stored collection with what this store would create.
func (s *Store) verify(row storedCollection, dimension int) error {
	switch {
	case row.dim != dimension:
		return fmt.Errorf("%w: %s has dimension %d, want %d", domain.ErrSchemaMismatch, row.name, row.dim, dimension)
	case row.schemaVersion != SchemaVersion:
		return fmt.Errorf("%w: %s has schema version %d, want %d",
			domain.ErrSchemaMismatch, row.name, row.schemaVersion, SchemaVersion)
	case row.metric != metricL2:
		return fmt.Errorf("%w: %s uses metric %s, want %s", domain.ErrSchemaMismatch, row.name, row.metric, metricL2)
	case row.indexType != indexIVFFlat:
		return fmt.Errorf("%w: %s uses index %s, want %s",
			domain.ErrSchemaMismatch, row.name, row.indexType, indexIVFFlat)
	case row.nlist != s.nlist:
		return fmt.Errorf("%w: %s has nlist %d, want %d", domain.ErrSchemaMismatch, row.name, row.nlist, s.nlist)
	}
	return nil
}

type storedCollection struct {
	*collection
	schemaVersion int
	metric        string
	indexType     string
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// loadCollection reads a collection row and its centroids.
func loadCollection(ctx context.Context, q querier, name string) (storedCollection, error) {
	c := storedCollection{collection: &collection{name: name}}
	var trained int
	err := q.QueryRowContext(ctx, `
		SELECT dimension, schema_version, metric, index_type, nlist, trained
		FROM collections WHERE name = ?
	`, name).Scan(&c.dim, &c.schemaVersion, &c.metric, &c.indexType, &c.nlist, &trained)
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return c, fmt.Errorf("loading collection %s: %w", name, err)
	}
	if trained == 0 {
		return c, nil
	}

	rows, err := q.QueryContext(ctx,
		"SELECT vector FROM centroids WHERE collection = ? ORDER BY list_id", name)
	if err != nil {
		return c, fmt.Errorf("loading centroids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return c, fmt.Errorf("scanning centroid: %w", err)
		}
		v, err := vecmath.Decode(blob)
		if err != nil {
			return c, err
		}
		c.centroids = append(c.centroids, v)
	}
	if err := rows.Err(); err != nil {
		return c, fmt.Errorf("iterating centroids: %w", err)
	}
	c.trained = len(c.centroids) > 0
	return c, nil
}

// current returns the loaded collection, loading the most recent one from
// disk when none is bound yet. It returns nil when no collection exists.
func (s *Store) current(ctx context.Context) (*collection, error) {
	if c := s.snapshot(); c != nil {
		return c, nil
	}
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var dimension int
	err = db.QueryRowContext(ctx,
		"SELECT dimension FROM collections ORDER BY created_at DESC, name LIMIT 1").Scan(&dimension)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding collection: %w", err)
	}
	if err := s.EnsureCollection(ctx, dimension); err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// Upsert writes one record per chunk in a single transaction.
// A storage failure is logged and reported as false with a nil error.
func (s *Store) Upsert(
	ctx context.Context,
	chunks []domain.Chunk,
	meta domain.DocumentMetadata,
	embeddings [][]float32,
) (bool, error) {
	if len(chunks) == 0 && len(embeddings) == 0 {
		return true, nil
	}
	db, c, meta, err := s.prepareWrite(ctx, chunks, meta, embeddings)
	if err != nil {
		return false, err
	}

	err = s.inTx(ctx, db, func(tx *sql.Tx) error {
		return writeRecords(ctx, tx, c, chunks, meta, embeddings)
	})
	if err != nil {
		logger.Error("vector store: writing %d records for %s/%s: %v",
			len(chunks), meta.TenantID, meta.DocumentID, err)
		return false, nil
	}
	logger.Debug("vector store: wrote %d records for %s/%s", len(chunks), meta.TenantID, meta.DocumentID)
	return true, nil
}

// ReplaceDocument deletes the records of the document read from meta.Path
// and writes the new ones in the same transaction. On failure the previous
// records are kept and false is returned with a nil error.
func (s *Store) ReplaceDocument(
	ctx context.Context,
	chunks []domain.Chunk,
	meta domain.DocumentMetadata,
	embeddings [][]float32,
) (bool, error) {
	if len(chunks) == 0 && len(embeddings) == 0 {
		meta = meta.WithDefaults()
		if err := meta.Validate(); err != nil {
			return false, err
		}
		if _, err := s.DeleteDocument(ctx, meta.TenantID, meta.DocumentID, meta.Path); err != nil {
			logger.Error("vector store: clearing %s/%s: %v", meta.TenantID, meta.DocumentID, err)
			return false, nil
		}
		return true, nil
	}
	db, c, meta, err := s.prepareWrite(ctx, chunks, meta, embeddings)
	if err != nil {
		return false, err
	}

	var removed int64
	err = s.inTx(ctx, db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND document_id = ? AND path = ?", c.name),
			meta.TenantID, meta.DocumentID, meta.Path)
		if err != nil {
			return fmt.Errorf("deleting previous records: %w", err)
		}
		if removed, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("counting deleted records: %w", err)
		}
		return writeRecords(ctx, tx, c, chunks, meta, embeddings)
	})
	if err != nil {
		logger.Error("vector store: replacing records of %s/%s: %v", meta.TenantID, meta.DocumentID, err)
		return false, nil
	}
	logger.Debug("vector store: replaced %d records of %s/%s with %d",
		removed, meta.TenantID, meta.DocumentID, len(chunks))
	return true, nil
}

// prepareWrite validates a write and binds the collection, creating it from
// the embedding width when none exists yet.
func (s *Store) prepareWrite(
	ctx context.Context,
	chunks []domain.Chunk,
	meta domain.DocumentMetadata,
	embeddings [][]float32,
) (*sql.DB, *collection, domain.DocumentMetadata, error) {
	if len(chunks) != len(embeddings) {
		return nil, nil, meta, fmt.Errorf("%w: %d chunks, %d embeddings",
			domain.ErrShapeMismatch, len(chunks), len(embeddings))
	}
	meta = meta.WithDefaults()
	if err := meta.Validate(); err != nil {
		return nil, nil, meta, err
	}

	db, err := s.conn()
	if err != nil {
		return nil, nil, meta, err
	}
	c, err := s.current(ctx)
	if err != nil {
		return nil, nil, meta, err
	}
	if c == nil {
		if err := s.EnsureCollection(ctx, len(embeddings[0])); err != nil {
			return nil, nil, meta, err
		}
		c = s.snapshot()
	}
	for i, emb := range embeddings {
		if len(emb) != c.dim {
			return nil, nil, meta, fmt.Errorf("%w: embedding %d has %d dimensions, collection %s has %d",
				domain.ErrDimensionMismatch, i, len(emb), c.name, c.dim)
		}
	}
	return db, c, meta, nil
}

func (s *Store) inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

func writeRecords(
	ctx context.Context,
	tx *sql.Tx,
	c *collection,
	chunks []domain.Chunk,
	meta domain.DocumentMetadata,
	embeddings [][]float32,
) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (embedding, text, tenant_id, document_id, source, source_system,
			language, version, last_modified, access_permissions, page, path, list_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.name))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var lastModified int64
	if !meta.LastModified.IsZero() {
		lastModified = meta.LastModified.Unix()
	}

	for i, chunk := range chunks {
		page := meta.Page
		if chunk.Page > 0 {
			page = chunk.Page
		}
		listID := -1
		if c.trained {
			listID = vecmath.Nearest(c.centroids, embeddings[i])
		}
		if _, err := stmt.ExecContext(ctx,
			vecmath.Encode(embeddings[i]), chunk.Text, meta.TenantID, meta.DocumentID,
			meta.Source, meta.SourceSystem, meta.Language, meta.Version, lastModified,
			meta.AccessPermissions, page, meta.Path, listID); err != nil {
			return fmt.Errorf("inserting record %d: %w", i, err)
		}
	}
	return nil
}

// Search returns the texts of the nearest records for tenant, most relevant first.
func (s *Store) Search(ctx context.Context, vector []float32, limit int, tenant string) ([]string, error) {
	hits, err := s.SearchHits(ctx, vector, limit, tenant)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Record.Text
	}
	return texts, nil
}

// SearchHits ranks the tenant's records by squared L2 distance to vector.
// A trained collection only visits the nprobe nearest lists.
func (s *Store) SearchHits(ctx context.Context, vector []float32, limit int, tenant string) ([]domain.SearchHit, error) {
	if limit <= 0 {
		return []domain.SearchHit{}, nil
	}
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	c, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return []domain.SearchHit{}, nil
	}
	if len(vector) != c.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection %s has %d",
			domain.ErrDimensionMismatch, len(vector), c.name, c.dim)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE tenant_id = ?", recordColumns, c.name)
	args := []any{domain.TenantOrDefault(tenant)}
	if c.trained {
		lists := vecmath.NearestN(c.centroids, vector, s.nprobe)
		// -1 covers records written while the index was being built.
		placeholders := make([]string, 0, len(lists)+1)
		placeholders = append(placeholders, "?")
		args = append(args, -1)
		for _, p := range lists {
			placeholders = append(placeholders, "?")
			args = append(args, p)
		}
		query += " AND list_id IN (" + strings.Join(placeholders, ", ") + ")"
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreSearch, err)
	}
	defer rows.Close()

	var hits []domain.SearchHit
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStoreSearch, err)
		}
		hits = append(hits, domain.SearchHit{Record: rec, Distance: vecmath.SquaredL2(vector, rec.Embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreSearch, err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Record.ID < hits[j].Record.ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	if hits == nil {
		hits = []domain.SearchHit{}
	}
	return hits, nil
}

func scanRecord(rows *sql.Rows) (domain.VectorRecord, error) {
	var rec domain.VectorRecord
	var blob []byte
	if err := rows.Scan(&rec.ID, &blob, &rec.Text, &rec.TenantID, &rec.DocumentID, &rec.Source,
		&rec.SourceSystem, &rec.Language, &rec.Version, &rec.LastModified,
		&rec.AccessPermissions, &rec.Page, &rec.Path); err != nil {
		return rec, fmt.Errorf("scanning record: %w", err)
	}
	v, err := vecmath.Decode(blob)
	if err != nil {
		return rec, err
	}
	rec.Embedding = v
	return rec, nil
}

// BuildIndex trains the coarse quantizer on the collection's vectors and
// assigns every record to its nearest list. Zero vectors are assigned but
// not used for training. It needs at least nlist non-zero vectors.
func (s *Store) BuildIndex(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	c, err := s.current(ctx)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("no collection: %w", domain.ErrNotFound)
	}

	ids, vectors, err := loadVectors(ctx, db, c.name)
	if err != nil {
		return err
	}

	var training [][]float32
	for _, v := range vectors {
		if !vecmath.IsZero(v) {
			training = append(training, v)
		}
	}
	if len(training) < c.nlist {
		return fmt.Errorf("%w: %s has %d usable vectors, nlist is %d",
			vecmath.ErrTooFewVectors, c.name, len(training), c.nlist)
	}
	training = sample(training, c.nlist*trainPerList)

	logger.Info("vector store: training %d lists on %d vectors", c.nlist, len(training))
	centroids, err := vecmath.TrainKMeans(training, c.nlist, s.iterations, s.seed)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM centroids WHERE collection = ?", c.name); err != nil {
		return fmt.Errorf("clearing centroids: %w", err)
	}
	for i, cv := range centroids {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO centroids (collection, list_id, vector) VALUES (?, ?, ?)",
			c.name, i, vecmath.Encode(cv)); err != nil {
			return fmt.Errorf("saving centroid %d: %w", i, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("UPDATE %s SET list_id = ? WHERE id = ?", c.name))
	if err != nil {
		return fmt.Errorf("preparing assignment: %w", err)
	}
	defer stmt.Close()
	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, vecmath.Nearest(centroids, vectors[i]), id); err != nil {
			return fmt.Errorf("assigning record %d: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "UPDATE collections SET trained = 1 WHERE name = ?", c.name); err != nil {
		return fmt.Errorf("marking collection trained: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}

	s.setCollection(&collection{name: c.name, dim: c.dim, nlist: c.nlist, trained: true, centroids: centroids})
	logger.Info("vector store: indexed %d records in %s", len(ids), c.name)
	return nil
}

func loadVectors(ctx context.Context, db *sql.DB, table string) ([]int64, [][]float32, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT id, embedding FROM %s ORDER BY id", table))
	if err != nil {
		return nil, nil, fmt.Errorf("loading vectors: %w", err)
	}
	defer rows.Close()

	var ids []int64
	var vectors [][]float32
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, nil, fmt.Errorf("scanning vector: %w", err)
		}
		v, err := vecmath.Decode(blob)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		vectors = append(vectors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating vectors: %w", err)
	}
	return ids, vectors, nil
}

// sample takes at most n vectors at an even stride.
func sample(vectors [][]float32, n int) [][]float32 {
	if len(vectors) <= n {
		return vectors
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = vectors[i*len(vectors)/n]
	}
	return out
}

// Count returns the number of records stored for tenant.
func (s *Store) Count(ctx context.Context, tenant string) (int, error) {
	db, c, err := s.bound(ctx)
	if err != nil || c == nil {
		return 0, err
	}
	var n int
	err = db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE tenant_id = ?", c.name),
		domain.TenantOrDefault(tenant)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// DeleteDocument removes the records of one document read from path for tenant.
func (s *Store) DeleteDocument(ctx context.Context, tenant, documentID, path string) (int, error) {
	db, c, err := s.bound(ctx)
	if err != nil || c == nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND document_id = ? AND path = ?", c.name),
		domain.TenantOrDefault(tenant), documentID, path)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting %s: %w", domain.ErrStoreWrite, documentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted records: %w", err)
	}
	return int(n), nil
}

// Purge drops the collection with every record and its index.
func (s *Store) Purge(ctx context.Context) error {
	db, c, err := s.bound(ctx)
	if err != nil || c == nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+c.name); err != nil {
		return fmt.Errorf("dropping %s: %w", c.name, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", c.name); err != nil {
		return fmt.Errorf("unregistering %s: %w", c.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing purge: %w", err)
	}

	s.setCollection(nil)
	logger.Info("vector store: purged %s", c.name)
	return nil
}

// Stats describes the bound collection.
func (s *Store) Stats(ctx context.Context) (domain.CollectionStats, error) {
	db, c, err := s.bound(ctx)
	if err != nil {
		return domain.CollectionStats{}, err
	}
	if c == nil {
		return domain.CollectionStats{}, fmt.Errorf("no collection: %w", domain.ErrNotFound)
	}

	stats := domain.CollectionStats{
		Name:          c.name,
		Dimension:     c.dim,
		SchemaVersion: SchemaVersion,
		Metric:        metricL2,
		IndexType:     indexIVFFlat,
		NList:         c.nlist,
		Trained:       c.trained,
		Tenants:       make(map[string]int),
	}

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT tenant_id, COUNT(*) FROM %s GROUP BY tenant_id ORDER BY tenant_id", c.name))
	if err != nil {
		return stats, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tenant string
		var n int
		if err := rows.Scan(&tenant, &n); err != nil {
			return stats, fmt.Errorf("scanning stats: %w", err)
		}
		stats.Tenants[tenant] = n
		stats.Records += n
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterating stats: %w", err)
	}
	return stats, nil
}

// bound returns the database and the loaded collection, which may be nil.
func (s *Store) bound(ctx context.Context) (*sql.DB, *collection, error) {
	db, err := s.conn()
	if err != nil {
		return nil, nil, err
	}
	c, err := s.current(ctx)
	if err != nil {
		return nil, nil, err
	}
	return db, c, nil
}
