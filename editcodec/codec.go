// Package editcodec converts selections of mirrored resources to and from
// the editable YAML text handed to the user's external editor. Instructional
// lines carry the sentinel prefix and are stripped before parsing; their
// content never reaches the parsed result.
package editcodec

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crmarques/boardprompt/faults"
	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/yamlutil"
)

// Sentinel marks instructional comment lines in the edit buffer.
const Sentinel = "#"

const idKey = "id"

const bufferUsageHint = "Edit the fields below and save the file.\n" +
	"Lines starting with '" + Sentinel + "' are ignored; removing them is fine.\n" +
	"Keep each 'id' line unchanged. Only the listed fields can be edited."

// EditBuffer is serialized text plus the snapshot version it was derived
// from. The version is what later detects a refresh racing the edit.
type EditBuffer struct {
	Text          string
	OriginVersion string
	ResourceIDs   []string
}

type Codec struct {
	indent int
}

func New() *Codec {
	return &Codec{indent: 2}
}

// Serialize renders one YAML block per resource, restricted to the
// editable keys in their declared order, preceded by sentinel comment
// lines. Resource order follows the input selection.
func (c *Codec) Serialize(resources []resource.Resource, editableKeys []string) (string, error) {
	if len(resources) == 0 {
		return "", faults.Validation("nothing selected to edit", nil)
	}

	sequence := &yaml.Node{Kind: yaml.SequenceNode}
	for idx, res := range resources {
		block := &yaml.Node{Kind: yaml.MappingNode}
		appendScalarPair(block, idKey, res.ID)
		for _, key := range editableKeys {
			value, ok := res.Fields[key]
			if !ok {
				continue
			}
			valueNode := &yaml.Node{}
			if err := valueNode.Encode(value); err != nil {
				return "", faults.Internal("cannot render field "+key+" of "+res.ID, err)
			}
			appendPair(block, key, valueNode)
		}

		comment := string(res.Type) + " " + res.ID
		if idx == 0 {
			comment = bufferUsageHint + "\n\n" + comment
		}
		block.HeadComment = comment
		sequence.Content = append(sequence.Content, block)
	}

	out, err := yamlutil.MarshalWithIndent(sequence, c.indent)
	if err != nil {
		return "", faults.Internal("cannot serialize edit buffer", err)
	}
	return string(out), nil
}

// Parse strips all sentinel-prefixed lines and decodes the remaining text
// into per-resource field maps keyed by id. It fails with ValidationError
// when a block lacks an id, an id repeats, a non-editable key appears, or
// the text is not well-formed YAML. Parse has no side effects.
func (c *Codec) Parse(text string, editableKeys []string) (map[string]resource.Fields, error) {
	stripped := StripComments(text)
	if strings.TrimSpace(stripped) == "" {
		return map[string]resource.Fields{}, nil
	}

	var blocks []map[string]any
	if err := yaml.Unmarshal([]byte(stripped), &blocks); err != nil {
		return nil, faults.Validation("edited text is not a valid resource list", err)
	}

	allowed := make(map[string]struct{}, len(editableKeys))
	for _, key := range editableKeys {
		allowed[key] = struct{}{}
	}

	parsed := make(map[string]resource.Fields, len(blocks))
	for _, block := range blocks {
		id, err := blockID(block)
		if err != nil {
			return nil, err
		}
		if _, dup := parsed[id]; dup {
			return nil, faults.Validation("duplicate id in edited text: "+id, nil)
		}

		fields := make(resource.Fields, len(block)-1)
		for key, value := range block {
			if key == idKey {
				continue
			}
			if _, ok := allowed[key]; !ok {
				return nil, faults.Validation("field "+key+" of "+id+" is not editable", nil)
			}
			fields[key] = value
		}

		normalized, err := resource.NormalizeFields(fields)
		if err != nil {
			return nil, err
		}
		parsed[id] = normalized
	}

	return parsed, nil
}

// StripComments drops every line whose first non-blank character is the
// sentinel, regardless of content. Stripping is lossy by design; comments
// are never expected to survive a round trip.
func StripComments(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), Sentinel) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func blockID(block map[string]any) (string, error) {
	raw, ok := block[idKey]
	if !ok {
		return "", faults.Validation("edited block is missing its id line", nil)
	}
	switch typed := raw.(type) {
	case string:
		if strings.TrimSpace(typed) == "" {
			return "", faults.Validation("edited block has an empty id", nil)
		}
		return typed, nil
	case int:
		// worklog ids arrive numeric from YAML; render them the way the
		// remote API addresses them
		return strconv.Itoa(typed), nil
	default:
		return "", faults.Validation("edited block has a non-string id", nil)
	}
}

// appendScalarPair renders the value double-quoted so ids that YAML
// would otherwise resolve as numbers or booleans round-trip exactly.
func appendScalarPair(mapping *yaml.Node, key, value string) {
	valueNode := &yaml.Node{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Value: value}
	appendPair(mapping, key, valueNode)
}

func appendPair(mapping *yaml.Node, key string, value *yaml.Node) {
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
	mapping.Content = append(mapping.Content, keyNode, value)
}

