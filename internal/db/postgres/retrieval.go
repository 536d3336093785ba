package postgres

import (
	"context"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/swipe"
)

// Interaction actions stored alongside swipe directions.
const actionShown = "shown"

// Search returns up to topK candidates nearest vector, most similar first.
// The <=> operator is cosine distance, so similarity is 1 - distance.
// Ties break on id to keep results deterministic.
func (d *DB) Search(ctx context.Context, kind candidate.Kind, vector []float32, topK int) ([]candidate.Scored, error) {
	query := `
		SELECT id, 1 - (embedding <=> ` + placeholder(1) + `) AS score
		FROM candidate
		WHERE kind = ` + placeholder(2) + ` AND embedding IS NOT NULL
		ORDER BY embedding <=> ` + placeholder(1) + `, id
		LIMIT ` + placeholder(3)

	rows, err := d.db.QueryContext(ctx, query, pgvector.NewVector(vector), string(kind), topK)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search")
	}
	defer rows.Close()

	out := make([]candidate.Scored, 0, topK)
	for rows.Next() {
		var (
			id    string
			score float64
		)
		if err := rows.Scan(&id, &score); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}
		out = append(out, candidate.Scored{ID: candidate.ID(id), Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate vector search results")
	}
	return out, nil
}

// Seen returns every candidate the actor has swiped or been shown in a pool.
func (d *DB) Seen(ctx context.Context, kind candidate.Kind, actor candidate.ID) (candidate.Set, error) {
	query := `SELECT target_id FROM interaction WHERE actor_id = ` + placeholder(1) + ` AND kind = ` + placeholder(2)

	rows, err := d.db.QueryContext(ctx, query, string(actor), string(kind))
	if err != nil {
		return candidate.Set{}, errors.Wrap(err, "failed to list interactions")
	}
	defer rows.Close()

	seen := candidate.NewSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return candidate.Set{}, errors.Wrap(err, "failed to scan interaction")
		}
		seen.Add(candidate.ID(id))
	}
	if err := rows.Err(); err != nil {
		return candidate.Set{}, errors.Wrap(err, "failed to iterate interactions")
	}
	return seen, nil
}

// Record stores a swipe. A later swipe on the same target replaces the earlier one.
func (d *DB) Record(ctx context.Context, s swipe.Swipe) error {
	stmt := `
		INSERT INTO interaction (actor_id, kind, target_id, action, created_ts)
		VALUES (` + placeholders(5) + `)
		ON CONFLICT (actor_id, kind, target_id)
		DO UPDATE SET action = EXCLUDED.action, created_ts = EXCLUDED.created_ts
	`
	_, err := d.db.ExecContext(ctx, stmt,
		string(s.Actor()), string(s.Kind()), string(s.Target()), string(s.Direction()), s.At().Unix(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to record swipe")
	}
	return nil
}

// MarkShown stores displayed candidates without overwriting existing swipes.
func (d *DB) MarkShown(ctx context.Context, kind candidate.Kind, actor candidate.ID, ids []candidate.ID) error {
	if len(ids) == 0 {
		return nil
	}
	stmt := `
		INSERT INTO interaction (actor_id, kind, target_id, action, created_ts)
		SELECT ` + placeholder(1) + `, ` + placeholder(2) + `, t, ` + placeholder(3) + `, ` + placeholder(4) + `
		FROM unnest(` + placeholder(5) + `::text[]) AS t
		ON CONFLICT (actor_id, kind, target_id) DO NOTHING
	`
	_, err := d.db.ExecContext(ctx, stmt,
		string(actor), string(kind), actionShown, d.now().Unix(), pq.Array(idStrings(ids)),
	)
	if err != nil {
		return errors.Wrap(err, "failed to mark shown")
	}
	return nil
}

// SampleUnseen returns up to count uniformly random candidates outside exclude.
func (d *DB) SampleUnseen(
	ctx context.Context, kind candidate.Kind, exclude candidate.Set, count int,
) ([]candidate.ID, error) {
	if count <= 0 {
		return nil, nil
	}

	query := `
		SELECT id FROM candidate
		WHERE kind = ` + placeholder(1) + ` AND NOT (id = ANY(` + placeholder(2) + `))
		ORDER BY random()
		LIMIT ` + placeholder(3)

	rows, err := d.db.QueryContext(ctx, query, string(kind), pq.Array(exclude.Strings()), count)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sample candidates")
	}
	defer rows.Close()

	out := make([]candidate.ID, 0, count)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan sampled candidate")
		}
		out = append(out, candidate.ID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate sampled candidates")
	}
	return out, nil
}
