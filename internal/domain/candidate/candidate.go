// Package candidate holds the identifiers and scored hits that flow through retrieval.
package candidate

import (
	"errors"
	"fmt"
	"strings"
)

// MaxIDLength bounds candidate identifiers; they end up inside storage keys.
const MaxIDLength = 128

// ID is an opaque candidate identifier (user or project).
type ID string

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }

// ParseID validates a raw identifier.
func ParseID(raw string) (ID, error) {
	if raw == "" {
		return "", errors.New("candidate id is required")
	}
	if len(raw) > MaxIDLength {
		return "", fmt.Errorf("candidate id too long (max %d chars)", MaxIDLength)
	}
	if strings.ContainsAny(raw, " \t\r\n*?[]{}") {
		return "", fmt.Errorf("candidate id %q contains invalid characters", raw)
	}
	return ID(raw), nil
}

// Kind selects the candidate pool.
type Kind string

// Candidate pools.
const (
	User    Kind = "user"
	Project Kind = "project"
)

// Kinds lists every pool in a stable order.
func Kinds() []Kind { return []Kind{User, Project} }

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	return k == User || k == Project
}

// ParseKind validates a raw kind, defaulting to User when empty.
func ParseKind(raw string) (Kind, error) {
	if raw == "" {
		return User, nil
	}
	k := Kind(strings.ToLower(raw))
	if !k.IsValid() {
		return "", fmt.Errorf("invalid candidate kind: %q", raw)
	}
	return k, nil
}

// Scored is a single vector index hit. Higher Score means more similar.
type Scored struct {
	ID    ID
	Score float64
}
