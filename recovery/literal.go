package recovery

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rickchristie/refine/node"
	"gopkg.in/yaml.v3"
)

// parseLiteral is the permissive last stage. It reads s as a YAML flow collection, which accepts
// unquoted keys, single-quoted strings and Python-style literals. Only text that starts as an
// object or array is considered, so surrounding prose is never read as a mapping.
func parseLiteral(s string) (*node.Node, error) {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return nil, errNoRecord
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(s), &doc); err != nil {
		return nil, fmt.Errorf("literal parse: %w", err)
	}
	root := &doc
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil, errNoRecord
		}
		root = doc.Content[0]
	}

	n, err := fromYAML(root, 0)
	if err != nil {
		return nil, err
	}
	if !n.IsContainer() {
		return nil, errNoRecord
	}
	return n, nil
}

// maxLiteralDepth guards against alias cycles.
const maxLiteralDepth = 64

func fromYAML(y *yaml.Node, depth int) (*node.Node, error) {
	if depth > maxLiteralDepth {
		return nil, errors.New("literal parse: nesting too deep")
	}
	switch y.Kind {
	case yaml.MappingNode:
		obj := node.NewObject()
		for i := 0; i+1 < len(y.Content); i += 2 {
			v, err := fromYAML(y.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			obj.Set(y.Content[i].Value, v)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := node.NewArray()
		for _, item := range y.Content {
			v, err := fromYAML(item, depth+1)
			if err != nil {
				return nil, err
			}
			arr.Append(v)
		}
		return arr, nil
	case yaml.AliasNode:
		if y.Alias == nil {
			return node.NewNull(), nil
		}
		return fromYAML(y.Alias, depth+1)
	case yaml.ScalarNode:
		return scalarFromYAML(y), nil
	default:
		return node.NewNull(), nil
	}
}

// scalarFromYAML maps a YAML scalar to a tree scalar. Plain (unquoted) scalars follow Python
// literal spelling for booleans and None; quoted scalars are always strings.
func scalarFromYAML(y *yaml.Node) *node.Node {
	if y.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0 {
		return node.NewString(y.Value)
	}
	switch y.Value {
	case "True", "true":
		return node.NewBool(true)
	case "False", "false":
		return node.NewBool(false)
	case "None", "null", "Null", "~", "":
		return node.NewNull()
	}
	switch y.ShortTag() {
	case "!!int":
		if i, err := strconv.ParseInt(strings.ReplaceAll(y.Value, "_", ""), 0, 64); err == nil {
			return node.NewNumber(strconv.FormatInt(i, 10))
		}
	case "!!float":
		if f, err := strconv.ParseFloat(y.Value, 64); err == nil {
			return node.NewNumber(strconv.FormatFloat(f, 'g', -1, 64))
		}
	}
	return node.NewString(y.Value)
}
