package storage

import (
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
)

// Encode serialises v as JSON and compresses it with snappy.
func Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

// Decode reverses Encode. Uncompressed JSON is accepted too so a snapshot
// written by hand can be loaded.
func Decode(data []byte, v any) error {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		if json.Valid(data) {
			raw = data
		} else {
			return fmt.Errorf("decode snapshot: %w", err)
		}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return nil
}
