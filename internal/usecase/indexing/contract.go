package indexing

import (
	"context"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
)

// ProfileWriter stores candidate profiles together with their embeddings.
type ProfileWriter interface {
	Upsert(ctx context.Context, p profile.Profile) error
	Delete(ctx context.Context, kind candidate.Kind, id candidate.ID) error
}

// Population tracks the fallback sampling pool. Backends whose sampler reads
// the profile table directly do not need one.
type Population interface {
	Enroll(ctx context.Context, kind candidate.Kind, id candidate.ID) error
	Withdraw(ctx context.Context, kind candidate.Kind, id candidate.ID) error
}
