package manifest

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const strTag = "!!str"

// substitute replaces every occurrence of placeholder in the string scalars
// below node. Mapping keys, non-string scalars and the shape of the tree are
// left untouched.
//
// An alias (including a "<<" merge value) whose anchor lies outside the walked
// subtree and carries the placeholder is replaced by a deep copy of the
// anchored node, which is then substituted. The anchor definition itself is
// not modified. Aliases to anchors inside the subtree are left as they are,
// since their definition is rewritten where it stands.
func substitute(node *yaml.Node, placeholder, value string) int {
	if node == nil || placeholder == "" {
		return 0
	}
	s := &substituter{
		placeholder: placeholder,
		value:       value,
		inside:      map[*yaml.Node]struct{}{},
	}
	s.mark(node)
	return s.walk(node)
}

type substituter struct {
	placeholder string
	value       string
	// inside holds the nodes of the walked subtree, aliases not followed.
	inside map[*yaml.Node]struct{}
}

func (s *substituter) mark(node *yaml.Node) {
	if node == nil {
		return
	}
	s.inside[node] = struct{}{}
	for _, child := range node.Content {
		s.mark(child)
	}
}

func (s *substituter) walk(node *yaml.Node) int {
	switch node.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		n := 0
		for _, child := range node.Content {
			n += s.walk(child)
		}
		return n
	case yaml.MappingNode:
		n := 0
		for i := 1; i < len(node.Content); i += 2 {
			n += s.walk(node.Content[i])
		}
		return n
	case yaml.ScalarNode:
		if node.ShortTag() != strTag || !strings.Contains(node.Value, s.placeholder) {
			return 0
		}
		node.Value = strings.ReplaceAll(node.Value, s.placeholder, s.value)
		return 1
	case yaml.AliasNode:
		target := node.Alias
		if target == nil {
			return 0
		}
		if _, ok := s.inside[target]; ok {
			return 0
		}
		if !holdsPlaceholder(target, s.placeholder, map[*yaml.Node]struct{}{}) {
			return 0
		}
		expanded := deepCopy(target)
		expanded.HeadComment = node.HeadComment
		expanded.LineComment = node.LineComment
		expanded.FootComment = node.FootComment
		*node = *expanded
		s.mark(node)
		return s.walk(node)
	default:
		return 0
	}
}

// holdsPlaceholder reports whether a string scalar reachable from node,
// following aliases, contains placeholder.
func holdsPlaceholder(node *yaml.Node, placeholder string, seen map[*yaml.Node]struct{}) bool {
	if node == nil {
		return false
	}
	if _, ok := seen[node]; ok {
		return false
	}
	seen[node] = struct{}{}

	switch node.Kind {
	case yaml.ScalarNode:
		return node.ShortTag() == strTag && strings.Contains(node.Value, placeholder)
	case yaml.AliasNode:
		return holdsPlaceholder(node.Alias, placeholder, seen)
	case yaml.MappingNode:
		for i := 1; i < len(node.Content); i += 2 {
			if holdsPlaceholder(node.Content[i], placeholder, seen) {
				return true
			}
		}
		return false
	default:
		for _, child := range node.Content {
			if holdsPlaceholder(child, placeholder, seen) {
				return true
			}
		}
		return false
	}
}

// deepCopy clones node and its content. Anchors are dropped from the copy so
// later aliases keep resolving to the original definition; aliases inside
// the copy still point at their original targets.
func deepCopy(node *yaml.Node) *yaml.Node {
	cp := *node
	cp.Anchor = ""
	if len(node.Content) > 0 {
		cp.Content = make([]*yaml.Node, len(node.Content))
		for i, child := range node.Content {
			cp.Content[i] = deepCopy(child)
		}
	}
	return &cp
}

// mappingValue returns the value node stored under key in a mapping node,
// and its index in Content.
func mappingValue(m *yaml.Node, key string) (*yaml.Node, int) {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil, -1
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1], i
		}
	}
	return nil, -1
}

// removeKey deletes key and its value from a mapping node.
func removeKey(m *yaml.Node, key string) bool {
	_, i := mappingValue(m, key)
	if i < 0 {
		return false
	}
	m.Content = append(m.Content[:i], m.Content[i+2:]...)
	return true
}

// resolveAlias returns the node an alias points at, or node itself.
func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// root returns the top-level node of a document.
func root(doc *yaml.Node) *yaml.Node {
	if doc == nil {
		return nil
	}
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil
		}
		return doc.Content[0]
	}
	return doc
}
