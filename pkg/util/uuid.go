package util

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Namespace scopes the name-based UUIDs produced by HashUUID.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("github.com/jpfielding/imagefile.go"))

// HashUUID returns a version 5 UUID of value's JSON encoding, or "" if value
// cannot be marshalled. Equal values always produce the same UUID.
func HashUUID(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return uuid.NewSHA1(Namespace, raw).String()
}
