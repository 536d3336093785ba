package profile

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/matchdex/internal/db"
	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	domprofile "github.com/kailas-cloud/matchdex/internal/domain/profile"
	"github.com/kailas-cloud/matchdex/internal/repository/candidateindex"
)

const (
	fieldDisplayName = "display_name"
	fieldHeadline    = "headline"
	fieldBio         = "bio"
	fieldAvatarURL   = "avatar_url"
	fieldAttributes  = "attributes"
)

// buildHashFields flattens a profile for HSET. Tags are comma-joined for the TAG field.
func buildHashFields(p *domprofile.Profile, now time.Time) (map[string]string, error) {
	attrs := "{}"
	if len(p.Attributes()) > 0 {
		raw, err := json.Marshal(p.Attributes())
		if err != nil {
			return nil, err
		}
		attrs = string(raw)
	}

	return map[string]string{
		fieldDisplayName:              p.DisplayName(),
		fieldHeadline:                 p.Headline(),
		fieldBio:                      p.Bio(),
		fieldAvatarURL:                p.AvatarURL(),
		fieldAttributes:               attrs,
		candidateindex.FieldTags:      strings.Join(p.Tags(), ","),
		candidateindex.FieldVector:    string(db.EncodeVector(p.Vector())),
		candidateindex.FieldUpdatedAt: strconv.FormatInt(now.Unix(), 10),
	}, nil
}

// parseHashFields rebuilds a profile from HGETALL output. Unreadable optional
// fields degrade to zero values rather than failing hydration.
func parseHashFields(kind candidate.Kind, id candidate.ID, m map[string]string) domprofile.Profile {
	var tags []string
	if raw := m[candidateindex.FieldTags]; raw != "" {
		tags = strings.Split(raw, ",")
	}

	var attrs map[string]string
	if raw := m[fieldAttributes]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &attrs)
	}

	var vector []float32
	if raw := m[candidateindex.FieldVector]; raw != "" {
		vector, _ = db.DecodeVector([]byte(raw))
	}

	return domprofile.Reconstruct(
		id, kind,
		m[fieldDisplayName], m[fieldHeadline], m[fieldBio],
		tags, m[fieldAvatarURL], attrs,
		vector,
	)
}
