// Package keyspace names every Valkey/Redis key the repositories touch.
package keyspace

import (
	"strings"

	"github.com/kailas-cloud/matchdex/internal/domain"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
)

// CandidatePrefix is the FT index prefix of a pool's candidate hashes.
func CandidatePrefix(kind candidate.Kind) string {
	return domain.KeyPrefix + "cand:" + string(kind) + ":"
}

// CandidateKey is the hash holding one candidate's profile and vector.
func CandidateKey(kind candidate.Kind, id candidate.ID) string {
	return CandidatePrefix(kind) + string(id)
}

// IDFromCandidateKey strips the pool prefix. ok is false for foreign keys.
func IDFromCandidateKey(kind candidate.Kind, key string) (candidate.ID, bool) {
	id, ok := strings.CutPrefix(key, CandidatePrefix(kind))
	if !ok || id == "" {
		return "", false
	}
	return candidate.ID(id), true
}

// IndexName is the FT index over a pool.
func IndexName(kind candidate.Kind) string {
	return domain.KeyPrefix + "idx:" + string(kind)
}

// SeenKey is the set of candidates an actor has already been shown in a pool.
func SeenKey(kind candidate.Kind, actor candidate.ID) string {
	return domain.KeyPrefix + "seen:" + string(kind) + ":" + string(actor)
}

// PopulationKey is the set of every indexed candidate in a pool.
func PopulationKey(kind candidate.Kind) string {
	return domain.KeyPrefix + "pop:" + string(kind)
}
