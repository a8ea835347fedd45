package provider

import (
	"unicode/utf8"

	"github.com/google/uuid"
)

// Key is the private token a multi-contribution is registered under. Keys
// compare by pointer, so every call to NewKey yields a distinct token even
// for identical descriptions.
type Key struct {
	ID          uuid.UUID
	Token       Token
	Description string
	prefix      string
}

// NewKey creates a fresh key for a contribution to token. limit truncates
// the description to at most limit bytes, on a rune boundary, when positive.
func NewKey(prefix string, token Token, description string, limit int) *Key {
	if limit > 0 && len(description) > limit {
		for limit > 0 && !utf8.RuneStart(description[limit]) {
			limit--
		}
		description = description[:limit] + "..."
	}
	if prefix == "" {
		prefix = "multi"
	}
	return &Key{
		ID:          uuid.New(),
		Token:       token,
		Description: description,
		prefix:      prefix,
	}
}

func (k *Key) String() string {
	return k.prefix + "(" + k.Description + ")#" + k.ID.String()[:8]
}
