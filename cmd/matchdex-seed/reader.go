package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/matchdex/internal/domain/candidate"
	"github.com/kailas-cloud/matchdex/internal/domain/profile"
)

const maxLineBytes = 1 << 20

// profileRow is one input line.
type profileRow struct {
	ID          string            `json:"id"`
	Kind        string            `json:"kind"`
	DisplayName string            `json:"display_name"`
	Headline    string            `json:"headline"`
	Bio         string            `json:"bio"`
	Tags        []string          `json:"tags"`
	AvatarURL   string            `json:"avatar_url"`
	Attributes  map[string]string `json:"attributes"`
}

// toProfile validates the row the same way the API does, so broken rows
// are rejected before a request is spent on them.
func (r *profileRow) toProfile() (profile.Profile, error) {
	id, err := candidate.ParseID(r.ID)
	if err != nil {
		return profile.Profile{}, err
	}
	kind, err := candidate.ParseKind(r.Kind)
	if err != nil {
		return profile.Profile{}, err
	}
	return profile.New(id, kind, r.DisplayName, r.Headline, r.Bio, r.Tags, r.AvatarURL, r.Attributes)
}

// profileReader streams JSON Lines profiles.
type profileReader struct {
	r      io.Reader
	closer io.Closer
}

func openProfileReader(path string) (*profileReader, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	return &profileReader{r: f, closer: f}, nil
}

func newProfileReader(r io.Reader) *profileReader {
	return &profileReader{r: r}
}

func (pr *profileReader) Close() error {
	if pr.closer == nil {
		return nil
	}
	return pr.closer.Close()
}

// rowFunc receives a parsed profile or the reason the line was rejected.
// blank is set for empty lines. Returning false stops reading.
type rowFunc func(line int, p profile.Profile, blank bool, err error) bool

// ReadProfiles calls fn for every line starting at offset (0-based), at most
// maxRows non-blank lines when maxRows > 0.
func (pr *profileReader) ReadProfiles(offset, maxRows int, fn rowFunc) error {
	sc := bufio.NewScanner(pr.r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := -1
	emitted := 0
	for sc.Scan() {
		line++
		if line < offset {
			continue
		}
		if maxRows > 0 && emitted >= maxRows {
			return nil
		}

		text := strings.TrimSpace(sc.Text())
		if text == "" {
			if !fn(line, profile.Profile{}, true, nil) {
				return nil
			}
			continue
		}
		emitted++

		var row profileRow
		if err := json.Unmarshal([]byte(text), &row); err != nil {
			if !fn(line, profile.Profile{}, false, fmt.Errorf("line %d: %w", line+1, err)) {
				return nil
			}
			continue
		}
		p, err := row.toProfile()
		if err != nil {
			err = fmt.Errorf("line %d: %w", line+1, err)
		}
		if !fn(line, p, false, err) {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}
