// Package yamlutil holds the YAML encoding helpers shared by the edit
// codec and the config loader.
package yamlutil

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// MarshalWithIndent encodes v (plain values or *yaml.Node trees) with the
// given indent. The stock yaml.Marshal indent is fixed at 4; edit buffers
// and config templates use 2.
func MarshalWithIndent(v any, indent int) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(indent)
	if err := encoder.Encode(v); err != nil {
		_ = encoder.Close()
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalStrict decodes data into out, rejecting keys that do not map
// to a known field. The config loader uses it to surface typos instead of
// silently ignoring them.
func UnmarshalStrict(data []byte, out any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(out)
}
