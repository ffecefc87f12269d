package model

import (
	"fmt"

	"github.com/goccy/go-json"
)

// EncodeList serializes l in the canonical id/title/completed shape.
func EncodeList(l List) ([]byte, error) {
	if l == nil {
		l = List{}
	}
	b, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return b, nil
}

// DecodeList parses a serialized list. A JSON null decodes to an empty list.
func DecodeList(b []byte) (List, error) {
	var l List
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if l == nil {
		l = List{}
	}
	return l, nil
}
