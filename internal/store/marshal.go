package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/combatlens/internal/ir"
)

// marshalObject converts an IRObject to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalObject(obj ir.IRObject) (string, error) {
	if obj == nil {
		obj = ir.IRObject{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalObject parses canonical JSON TEXT to IRObject.
// Integers are decoded via json.Number so values > 2^53 survive.
func unmarshalObject(data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	return ir.UnmarshalIRObject([]byte(data))
}

// marshalIDs renders an id list as a JSON array. nil renders as [].
func marshalIDs(ids []int64) (string, error) {
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal ids: %w", err)
	}
	return string(data), nil
}

// unmarshalIDs parses a JSON id array. An empty array yields nil.
func unmarshalIDs(data string) ([]int64, error) {
	var ids []int64
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}
