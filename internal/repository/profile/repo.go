// Package profile stores candidate display records and vectors as hashes.
package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/matchdex/internal/domain"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	domprofile "github.com/kailas-cloud/matchdex/internal/domain/profile"
	"github.com/kailas-cloud/matchdex/internal/repository/candidateindex"
	"github.com/kailas-cloud/matchdex/internal/repository/keyspace"
)

// store is the consumer interface for candidate hashes (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
}

// Repo implements the profile store and profile vector reader.
type Repo struct {
	store store
	now   func() time.Time
}

// New creates a profile repository.
func New(s store) *Repo {
	return &Repo{store: s, now: time.Now}
}

// Upsert writes the profile hash; the FT index picks it up through the key prefix.
func (r *Repo) Upsert(ctx context.Context, p domprofile.Profile) error {
	fields, err := buildHashFields(&p, r.now())
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", p.ID(), err)
	}
	key := keyspace.CandidateKey(p.Kind(), p.ID())
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Delete removes the profile hash, which also drops it from the index.
func (r *Repo) Delete(ctx context.Context, kind candidate.Kind, id candidate.ID) error {
	key := keyspace.CandidateKey(kind, id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// GetMany hydrates profiles in the order of ids. Missing ids are skipped.
func (r *Repo) GetMany(ctx context.Context, kind candidate.Kind, ids []candidate.ID) ([]domprofile.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyspace.CandidateKey(kind, id)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}

	out := make([]domprofile.Profile, 0, len(ids))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		out = append(out, parseHashFields(kind, ids[i], m))
	}
	return out, nil
}

// ProfileVector returns the stored embedding of a candidate.
func (r *Repo) ProfileVector(ctx context.Context, kind candidate.Kind, id candidate.ID) ([]float32, error) {
	key := keyspace.CandidateKey(kind, id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if m[candidateindex.FieldVector] == "" {
		return nil, domain.ErrProfileVectorMissing
	}
	p := parseHashFields(kind, id, m)
	if len(p.Vector()) == 0 {
		return nil, fmt.Errorf("%w: unreadable vector", domain.ErrProfileVectorMissing)
	}
	return p.Vector(), nil
}
