package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Map keys are marshaled in sorted order, so artifacts produced from the same
// config are byte-identical across runs.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used for structured artifacts.
var Default Codec = GoJSON{}
