// Package cache wraps an embedding model with a persistent bbolt cache.
// Entries are keyed by model name and exact input text, so the prefix the
// Embedder applies keeps query and passage vectors apart.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingModel = (*EmbeddingService)(nil)

var bucketEmbeddings = []byte("embeddings")

// EmbeddingService serves cached vectors and delegates misses.
type EmbeddingService struct {
	db    *bbolt.DB
	inner driven.EmbeddingModel
}

// Open opens (or creates) the cache database at path in front of inner.
func Open(path string, inner driven.EmbeddingModel) (*EmbeddingService, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", bucketEmbeddings, err)
	}

	return &EmbeddingService{db: db, inner: inner}, nil
}

func (s *EmbeddingService) key(text string) []byte {
	sum := sha256.Sum256([]byte(s.inner.ModelName() + "\x00" + text))
	return sum[:]
}

// Embed returns cached vectors where present and embeds the rest in one
// call to the wrapped model. Output order matches input order.
func (s *EmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []int

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for i, text := range texts {
			data := b.Get(s.key(text))
			if data == nil {
				missing = append(missing, i)
				continue
			}
			vec, err := vecmath.Decode(data)
			if err != nil || len(vec) != s.inner.Dimensions() {
				missing = append(missing, i)
				continue
			}
			out[i] = vec
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read embedding cache: %w", err)
	}
	if len(missing) == 0 {
		return out, nil
	}

	batch := make([]string, len(missing))
	for j, i := range missing {
		batch[j] = texts[i]
	}
	fresh, err := s.inner.Embed(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(batch) {
		return nil, fmt.Errorf("cache: model returned %d embeddings for %d inputs", len(fresh), len(batch))
	}

	for j, i := range missing {
		out[i] = fresh[j]
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for j, i := range missing {
			if len(fresh[j]) != s.inner.Dimensions() {
				continue
			}
			if err := b.Put(s.key(texts[i]), vecmath.Encode(fresh[j])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Warn("Failed to write embedding cache: %v", err)
	}
	return out, nil
}

// Len returns the number of cached vectors.
func (s *EmbeddingService) Len() int {
	n := 0
	_ = s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return n
}

// Dimensions returns the wrapped model's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the wrapped model's name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the wrapped model.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the cache and the wrapped model.
func (s *EmbeddingService) Close() error {
	dbErr := s.db.Close()
	if err := s.inner.Close(); err != nil {
		return err
	}
	return dbErr
}
