package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes caps request bodies. Items arrays are the largest payloads.
const MaxBodyBytes = 10 << 20

// ErrEmptyBody is returned by ParseJSON when the body has no content
var ErrEmptyBody = errors.New("request body is empty")

// ParseJSON decodes a JSON request body into dest.
// Unknown fields are accepted: items carry collaborator-owned fields and
// validation happens in the service layer.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
