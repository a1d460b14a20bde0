// Package table holds row-sets fetched from the portal and the count
// aggregations built from them.
package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Row is one record with named fields as decoded from JSON.
type Row map[string]any

// Rows is an ordered row-set. Aggregations never modify it.
type Rows []Row

// Lookup returns the value at a dotted field path such as "authorUser.organizationName".
func (r Row) Lookup(path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the scalar at path formatted as a key.
func (r Row) String(path string) (string, bool) {
	v, ok := r.Lookup(path)
	if !ok {
		return "", false
	}
	return scalarKey(v)
}

// DecodeRows parses a JSON payload into a row-set. A top-level array is used
// as is; for an object, itemsField names the array holding the records, and an
// object without it becomes a single row.
func DecodeRows(data []byte, itemsField string) (Rows, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Rows{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}

	if obj, ok := payload.(map[string]any); ok {
		if itemsField == "" {
			return Rows{Row(obj)}, nil
		}
		items, found := obj[itemsField]
		if !found {
			return nil, fmt.Errorf("field %q not found in response", itemsField)
		}
		payload = items
	}

	list, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON array of records, got %T", payload)
	}

	rows := make(Rows, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d is %T, not an object", i, item)
		}
		rows = append(rows, Row(obj))
	}
	return rows, nil
}

// keyValues turns a field value into grouping keys. Scalars give one key,
// lists give each distinct scalar element once; null gives none.
func keyValues(v any) []string {
	if list, ok := v.([]any); ok {
		seen := make(map[string]bool, len(list))
		keys := make([]string, 0, len(list))
		for _, item := range list {
			key, ok := scalarKey(item)
			if !ok || seen[key] {
				continue
			}
			seen[key] = true
			keys = append(keys, key)
		}
		return keys
	}
	if key, ok := scalarKey(v); ok {
		return []string{key}
	}
	return nil
}

func scalarKey(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}
