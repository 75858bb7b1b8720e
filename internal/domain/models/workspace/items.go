package workspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Item keys rewritten when a project is duplicated.
const (
	itemIDKey = "id"
)

var itemTimestampKeys = []string{"createdAt", "addedAt"}

// ValidateItems checks that a payload is a JSON array. Elements are not
// inspected.
func ValidateItems(items json.RawMessage) error {
	trimmed := bytes.TrimSpace(items)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("items must be a JSON array")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return fmt.Errorf("items must be a JSON array: %w", err)
	}
	return nil
}

// ConcatItems appends the elements of extra to base and returns a new array.
func ConcatItems(base, extra json.RawMessage) (json.RawMessage, error) {
	var head, tail []json.RawMessage
	if len(bytes.TrimSpace(base)) > 0 {
		if err := json.Unmarshal(base, &head); err != nil {
			return nil, fmt.Errorf("decode existing items: %w", err)
		}
	}
	if err := json.Unmarshal(extra, &tail); err != nil {
		return nil, fmt.Errorf("decode new items: %w", err)
	}
	out, err := json.Marshal(append(head, tail...))
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	return out, nil
}

// CloneItems deep-copies an items array for a duplicated project. Object
// elements get a fresh id and fresh timestamps; other elements are copied
// verbatim.
func CloneItems(items json.RawMessage, newID func() string, now time.Time) (json.RawMessage, error) {
	if len(bytes.TrimSpace(items)) == 0 {
		return EmptyItems, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(items, &elems); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	out := make([]json.RawMessage, 0, len(elems))
	for i, elem := range elems {
		trimmed := bytes.TrimSpace(elem)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			out = append(out, append(json.RawMessage(nil), elem...))
			continue
		}

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, fmt.Errorf("decode item %d: %w", i, err)
		}

		if _, ok := fields[itemIDKey]; ok {
			id, _ := json.Marshal(newID())
			fields[itemIDKey] = id
		}
		for _, key := range itemTimestampKeys {
			old, ok := fields[key]
			if !ok {
				continue
			}
			fields[key] = freshTimestamp(old, now)
		}

		rewritten, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("encode item %d: %w", i, err)
		}
		out = append(out, rewritten)
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	return encoded, nil
}

// freshTimestamp keeps the encoding of the original value: numbers become
// Unix milliseconds, everything else an RFC 3339 string.
func freshTimestamp(old json.RawMessage, now time.Time) json.RawMessage {
	trimmed := bytes.TrimSpace(old)
	if len(trimmed) > 0 && (trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9')) {
		return json.RawMessage(fmt.Sprintf("%d", now.UnixMilli()))
	}
	ts, _ := json.Marshal(now.UTC().Format(time.RFC3339Nano))
	return ts
}
