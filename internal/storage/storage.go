// Package storage persists the set of announced canonical keys.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned by Load when nothing has been persisted yet.
var ErrNotFound = errors.New("storage: ledger not found")

// encodeKeys renders keys as a sorted JSON array of strings.
func encodeKeys(keys []string) ([]byte, error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	if sorted == nil {
		sorted = []string{}
	}
	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal ledger: %w", err)
	}
	return append(data, '\n'), nil
}

// decodeKeys parses a JSON array of strings. An empty document is an empty
// ledger.
func decodeKeys(data []byte) ([]string, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("unmarshal ledger: %w", err)
	}
	return keys, nil
}
