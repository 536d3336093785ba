package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/kailas-cloud/matchdex/internal/domain"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
)

// Upsert inserts or replaces a candidate with its embedding.
func (d *DB) Upsert(ctx context.Context, p profile.Profile) error {
	attrs, err := json.Marshal(nonNilAttributes(p.Attributes()))
	if err != nil {
		return errors.Wrap(err, "failed to encode attributes")
	}
	tags := p.Tags()
	if tags == nil {
		tags = []string{}
	}

	stmt := `
		INSERT INTO candidate (kind, id, display_name, headline, bio, tags, avatar_url, attributes, embedding, updated_ts)
		VALUES (` + placeholders(10) + `)
		ON CONFLICT (kind, id)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			headline = EXCLUDED.headline,
			bio = EXCLUDED.bio,
			tags = EXCLUDED.tags,
			avatar_url = EXCLUDED.avatar_url,
			attributes = EXCLUDED.attributes,
			embedding = EXCLUDED.embedding,
			updated_ts = EXCLUDED.updated_ts
	`
	_, err = d.db.ExecContext(ctx, stmt,
		string(p.Kind()),
		string(p.ID()),
		p.DisplayName(),
		p.Headline(),
		p.Bio(),
		pq.Array(tags),
		p.AvatarURL(),
		attrs,
		pgvector.NewVector(p.Vector()),
		d.now().Unix(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to upsert candidate")
	}
	return nil
}

// Delete removes a candidate. Deleting a missing candidate is not an error.
func (d *DB) Delete(ctx context.Context, kind candidate.Kind, id candidate.ID) error {
	stmt := `DELETE FROM candidate WHERE kind = ` + placeholder(1) + ` AND id = ` + placeholder(2)
	if _, err := d.db.ExecContext(ctx, stmt, string(kind), string(id)); err != nil {
		return errors.Wrap(err, "failed to delete candidate")
	}
	return nil
}

// GetMany hydrates profiles in the order of ids. Missing ids are skipped.
func (d *DB) GetMany(ctx context.Context, kind candidate.Kind, ids []candidate.ID) ([]profile.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, display_name, headline, bio, tags, avatar_url, attributes
		FROM candidate
		WHERE kind = ` + placeholder(1) + ` AND id = ANY(` + placeholder(2) + `)`

	rows, err := d.db.QueryContext(ctx, query, string(kind), pq.Array(idStrings(ids)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get candidates")
	}
	defer rows.Close()

	byID := make(map[candidate.ID]profile.Profile, len(ids))
	for rows.Next() {
		var (
			id, displayName, headline, bio, avatarURL string
			tags                                      []string
			rawAttrs                                  []byte
		)
		if err := rows.Scan(&id, &displayName, &headline, &bio, pq.Array(&tags), &avatarURL, &rawAttrs); err != nil {
			return nil, errors.Wrap(err, "failed to scan candidate")
		}
		var attrs map[string]string
		if len(rawAttrs) > 0 {
			_ = json.Unmarshal(rawAttrs, &attrs)
		}
		cid := candidate.ID(id)
		byID[cid] = profile.Reconstruct(cid, kind, displayName, headline, bio, tags, avatarURL, attrs, nil)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate candidates")
	}

	out := make([]profile.Profile, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ProfileVector returns the stored embedding of a candidate.
func (d *DB) ProfileVector(ctx context.Context, kind candidate.Kind, id candidate.ID) ([]float32, error) {
	query := `
		SELECT embedding FROM candidate
		WHERE kind = ` + placeholder(1) + ` AND id = ` + placeholder(2) + ` AND embedding IS NOT NULL`

	var vector pgvector.Vector
	err := d.db.QueryRowContext(ctx, query, string(kind), string(id)).Scan(&vector)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileVectorMissing
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get profile vector")
	}
	return vector.Slice(), nil
}

func nonNilAttributes(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func idStrings(ids []candidate.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
