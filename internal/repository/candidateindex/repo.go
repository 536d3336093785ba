// Package candidateindex manages the per-pool FT vector indexes.
package candidateindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/matchdex/internal/db"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/repository/keyspace"
)

// store is the consumer interface for index management (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo creates and drops candidate indexes.
type Repo struct {
	store     store
	vectorDim int
	hnsw      db.HNSW
}

// New creates an index repository.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim, hnsw: db.HNSW{M: 16, EFConstruct: 200}}
}

// WithHNSW overrides HNSW index parameters. Zero values keep the defaults.
func (r *Repo) WithHNSW(cfg db.HNSW) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndexes creates a missing index for every pool. Existing indexes are left alone.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	for _, kind := range candidate.Kinds() {
		if err := r.Ensure(ctx, kind); err != nil {
			return err
		}
	}
	return nil
}

// Ensure creates the index of one pool if it does not exist.
func (r *Repo) Ensure(ctx context.Context, kind candidate.Kind) error {
	name := keyspace.IndexName(kind)
	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def, err := r.definition(kind)
	if err != nil {
		return fmt.Errorf("build index %s: %w", name, err)
	}
	// Another replica may win the race between FT.INFO and FT.CREATE.
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// Drop removes the index of one pool. Candidate hashes survive.
func (r *Repo) Drop(ctx context.Context, kind candidate.Kind) error {
	if err := r.store.DropIndex(ctx, keyspace.IndexName(kind)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index: %w", err)
	}
	return nil
}

func (r *Repo) definition(kind candidate.Kind) (*db.IndexDefinition, error) {
	return db.NewIndex(keyspace.IndexName(kind)).
		Prefix(keyspace.CandidatePrefix(kind)).
		Tag(FieldTags, ",").
		Numeric(FieldUpdatedAt).
		Vector(FieldVector, r.vectorDim, r.hnsw).
		Build()
}

// Indexed hash fields shared with the profile repository.
const (
	FieldTags      = "tags"
	FieldUpdatedAt = "updated_at"
	FieldVector    = "vector"
)
