package httputil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
)

// OptionalID is a PATCH field holding a record id (RFC 7396 merge
// semantics). Absent leaves the field alone, null clears it, a string sets
// it. Strings are trimmed; an empty string decodes as present-but-blank and
// is left for the service to reject.
type OptionalID struct {
	Present bool
	Value   *string
}

// UnmarshalJSON only runs when the field is present in the body
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Present = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("id must be a string or null: %w", err)
	}
	s = strings.TrimSpace(s)
	o.Value = &s
	return nil
}

// Ref converts the field to the transport-agnostic form
func (o OptionalID) Ref() models.OptionalRef {
	return models.OptionalRef{Present: o.Present, Value: o.Value}
}
