package state

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// IDGenerator returns an id with the given prefix that exists() rejects as unused.
type IDGenerator func(prefix string, exists func(string) bool) string

var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewRandomID returns prefix-<8 base32 chars> drawn from a random UUID, retrying on
// collision and falling back to the full UUID.
func NewRandomID(prefix string, exists func(string) bool) string {
	for i := 0; i < 10; i++ {
		u := uuid.New()
		suffix := strings.ToLower(idEncoding.EncodeToString(u[:5]))
		id := prefix + "-" + suffix
		if exists == nil || !exists(id) {
			return id
		}
	}
	for {
		id := prefix + "-" + uuid.NewString()
		if exists == nil || !exists(id) {
			return id
		}
	}
}
