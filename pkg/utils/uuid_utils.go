package utils

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var newUUIDv7 = uuid.NewV7

var ErrNonCanonicalUUID = errors.New("uuid must be in canonical 8-4-4-4-12 form")

// GenerateUUIDv7 returns a time-ordered id for new funding records, falling
// back to v4 when the v7 generator fails.
func GenerateUUIDv7() uuid.UUID {
	id, err := newUUIDv7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// ParseCanonicalUUID parses a user id in the 36 character hyphenated form.
// Braced, URN and bare-hex spellings are rejected.
func ParseCanonicalUUID(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if len(s) != 36 {
		return uuid.Nil, ErrNonCanonicalUUID
	}
	return uuid.Parse(s)
}
