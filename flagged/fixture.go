package flagged

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/shapeflow/types"
)

// Flagged trees are written as ordinary YAML with a few conventions:
//
//	$class: Person        # a mapping with $class is a class instance
//	name: !pending "Ad"   # a tag naming a flag kind attaches that flag
//	age: !incomplete 3
//	color: {$enum: Color, $value: RED}
//	photo: {$media: image, url: "https://..."}
//	tags: [a, b]
//	$flags: [ObjectToMap] # more flags for the enclosing node
//
// Untagged scalars keep their YAML type. Any other mapping is a map.

const (
	keyClass = "$class"
	keyEnum  = "$enum"
	keyValue = "$value"
	keyMedia = "$media"
	keyFlags = "$flags"
)

// DecodeYAML reads a single flagged tree.
func DecodeYAML(data []byte) (*Value, error) {
	values, err := DecodeYAMLStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("expected one YAML document, found %d", len(values))
	}
	return values[0], nil
}

// DecodeYAMLStream reads every document of a multi-document stream, one
// tree per document. Replays use this to hold successive stream snapshots.
func DecodeYAMLStream(r io.Reader) ([]*Value, error) {
	dec := yaml.NewDecoder(r)
	var out []*Value
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse flagged value: %w", err)
		}
		v, err := FromYAML(&doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// FromYAML converts a parsed YAML node into a flagged tree.
func FromYAML(node *yaml.Node) (*Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return NewNull(), nil
		}
		return FromYAML(node.Content[0])
	case yaml.AliasNode:
		return FromYAML(node.Alias)
	}

	conds := NewConditions()
	if err := addTagFlag(node, conds); err != nil {
		return nil, err
	}

	switch node.Kind {
	case yaml.ScalarNode:
		return fromScalar(node, conds)
	case yaml.SequenceNode:
		items := make([]*Value, len(node.Content))
		for i, item := range node.Content {
			v, err := FromYAML(item)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return NewList(conds, items...), nil
	case yaml.MappingNode:
		return fromMapping(node, conds)
	}
	return nil, fixtureError(node, "unsupported YAML node")
}

func fixtureError(node *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", node.Line, fmt.Sprintf(format, args...))
}

// addTagFlag attaches the flag named by a local tag such as !pending.
func addTagFlag(node *yaml.Node, conds *Conditions) error {
	if !strings.HasPrefix(node.Tag, "!") || strings.HasPrefix(node.Tag, "!!") {
		return nil
	}
	kind, ok := ParseFlagKind(strings.TrimPrefix(node.Tag, "!"))
	if !ok {
		return fixtureError(node, "unknown flag %q", node.Tag)
	}
	conds.Add(Flag{Kind: kind})
	return nil
}

func fromScalar(node *yaml.Node, conds *Conditions) (*Value, error) {
	plain := *node
	if node.Tag != "" && !strings.HasPrefix(node.Tag, "!!") {
		plain.Tag = ""
	}

	switch plain.ShortTag() {
	case "!!null":
		return types.NewNull(conds), nil
	case "!!bool":
		var b bool
		if err := plain.Decode(&b); err != nil {
			return nil, fixtureError(node, "%v", err)
		}
		return types.NewBool(b, conds), nil
	case "!!int":
		var i int64
		if err := plain.Decode(&i); err != nil {
			return nil, fixtureError(node, "%v", err)
		}
		return types.NewInt(i, conds), nil
	case "!!float":
		var f float64
		if err := plain.Decode(&f); err != nil {
			return nil, fixtureError(node, "%v", err)
		}
		return types.NewFloat(f, conds), nil
	}
	return types.NewString(node.Value, conds), nil
}

func fromMapping(node *yaml.Node, conds *Conditions) (*Value, error) {
	var (
		className, enumName, enumValue, mediaName string
		entries                                   []Entry
		media                                     = map[string]string{}
	)
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == keyMedia {
			mediaName = node.Content[i+1].Value
		}
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case keyClass:
			className = val.Value
		case keyEnum:
			enumName = val.Value
		case keyValue:
			enumValue = val.Value
		case keyMedia:
		case keyFlags:
			if val.Kind != yaml.SequenceNode {
				return nil, fixtureError(val, "%s must be a list of flag names", keyFlags)
			}
			for _, item := range val.Content {
				kind, ok := ParseFlagKind(item.Value)
				if !ok {
					return nil, fixtureError(item, "unknown flag %q", item.Value)
				}
				conds.Add(Flag{Kind: kind})
			}
		default:
			if mediaName != "" {
				media[key.Value] = val.Value
				continue
			}
			v, err := FromYAML(val)
			if err != nil {
				return nil, err
			}
			entries = append(entries, Field(key.Value, v))
		}
	}

	switch {
	case enumName != "":
		return types.NewEnum(enumName, enumValue, conds), nil
	case mediaName != "":
		p, ok := types.ParsePrimitive(mediaName)
		if !ok || !p.IsMedia() {
			return nil, fixtureError(node, "unknown media type %q", mediaName)
		}
		return types.NewMedia(&types.Media{
			Type:     p,
			URL:      media["url"],
			Base64:   media["base64"],
			MimeType: media["media_type"],
		}, conds), nil
	case className != "":
		return NewClass(className, conds, entries...), nil
	}
	return NewMap(conds, entries...), nil
}
