// Package profile holds the display record hydrated for each retrieved candidate.
package profile

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
)

// Field limits.
const (
	MaxDisplayNameLength = 64
	MaxHeadlineLength    = 256
	MaxBioLength         = 4096
	MaxTags              = 32
	MaxTagLength         = 32
)

// Profile is the candidate display aggregate (immutable value object).
type Profile struct {
	id          candidate.ID
	kind        candidate.Kind
	displayName string
	headline    string
	bio         string
	tags        []string
	avatarURL   string
	attributes  map[string]string
	vector      []float32
}

// New validates and creates a Profile. Tags are trimmed, lower-cased and deduplicated.
func New(
	id candidate.ID, kind candidate.Kind,
	displayName, headline, bio string,
	tags []string, avatarURL string, attributes map[string]string,
) (Profile, error) {
	if id == "" {
		return Profile{}, fmt.Errorf("profile id is required")
	}
	if !kind.IsValid() {
		return Profile{}, fmt.Errorf("invalid profile kind %q", kind)
	}
	if strings.TrimSpace(displayName) == "" {
		return Profile{}, fmt.Errorf("display name is required")
	}
	if len(displayName) > MaxDisplayNameLength {
		return Profile{}, fmt.Errorf("display name too long (max %d chars)", MaxDisplayNameLength)
	}
	if len(headline) > MaxHeadlineLength {
		return Profile{}, fmt.Errorf("headline too long (max %d chars)", MaxHeadlineLength)
	}
	if len(bio) > MaxBioLength {
		return Profile{}, fmt.Errorf("bio too long (max %d chars)", MaxBioLength)
	}

	normalized, err := normalizeTags(tags)
	if err != nil {
		return Profile{}, err
	}

	return Profile{
		id:          id,
		kind:        kind,
		displayName: strings.TrimSpace(displayName),
		headline:    headline,
		bio:         bio,
		tags:        normalized,
		avatarURL:   avatarURL,
		attributes:  maps.Clone(attributes),
	}, nil
}

// Reconstruct creates a Profile without validation (storage hydration).
func Reconstruct(
	id candidate.ID, kind candidate.Kind,
	displayName, headline, bio string,
	tags []string, avatarURL string, attributes map[string]string,
	vector []float32,
) Profile {
	return Profile{
		id: id, kind: kind,
		displayName: displayName, headline: headline, bio: bio,
		tags: tags, avatarURL: avatarURL, attributes: attributes,
		vector: vector,
	}
}

// ID returns the candidate identifier.
func (p *Profile) ID() candidate.ID { return p.id }

// Kind returns the candidate pool.
func (p *Profile) Kind() candidate.Kind { return p.kind }

// DisplayName returns the public name.
func (p *Profile) DisplayName() string { return p.displayName }

// Headline returns the one-line summary.
func (p *Profile) Headline() string { return p.headline }

// Bio returns the free-form description.
func (p *Profile) Bio() string { return p.bio }

// Tags returns the normalized interest tags.
func (p *Profile) Tags() []string { return p.tags }

// AvatarURL returns the avatar location.
func (p *Profile) AvatarURL() string { return p.avatarURL }

// Attributes returns extra display fields (city, school, stage...).
func (p *Profile) Attributes() map[string]string { return p.attributes }

// Vector returns the stored profile embedding. Not exposed to clients.
func (p *Profile) Vector() []float32 { return p.vector }

// WithVector returns a copy of the profile carrying vec.
func (p Profile) WithVector(vec []float32) Profile {
	p.vector = slices.Clone(vec)
	return p
}

// EmbeddingText renders the text the profile vector is computed from.
// Attributes are emitted in key order so identical profiles embed identically.
func (p *Profile) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(p.displayName)
	if p.headline != "" {
		b.WriteString(". ")
		b.WriteString(p.headline)
	}
	if p.bio != "" {
		b.WriteString(". ")
		b.WriteString(p.bio)
	}
	if len(p.tags) > 0 {
		b.WriteString(". Interests: ")
		b.WriteString(strings.Join(p.tags, ", "))
	}
	keys := make([]string, 0, len(p.attributes))
	for k := range p.attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, ". %s: %s", k, p.attributes[k])
	}
	return b.String()
}

func normalizeTags(tags []string) ([]string, error) {
	if len(tags) > MaxTags {
		return nil, fmt.Errorf("too many tags (max %d)", MaxTags)
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if len(t) > MaxTagLength {
			return nil, fmt.Errorf("tag %q too long (max %d chars)", t, MaxTagLength)
		}
		if strings.ContainsRune(t, ',') {
			return nil, fmt.Errorf("tag %q must not contain commas", t)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}
