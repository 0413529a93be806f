// Package xmlnorm strips XML namespaces from Amazon MWS/PA response bodies
// and exposes a small DOM-like tree with path-based value extraction, so
// downstream code never has to reason about namespaces.
package xmlnorm

import (
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"

	"github.com/garrettmk/broccoli/schemas"
)

var (
	xmlnsDeclRe  = regexp.MustCompile(`(?i)\s+xmlns(:[A-Za-z0-9_.-]+)?="[^"]*"`)
	openTagNSRe  = regexp.MustCompile(`<([A-Za-z0-9_.-]+):`)
	closeTagNSRe = regexp.MustCompile(`</([A-Za-z0-9_.-]+):`)
)

// StripNamespaces applies the three textual substitutions spec.md §4.2
// requires, in order: remove xmlns(:prefix)="..." declarations, rewrite
// "<prefix:local" to "<local", and rewrite "</prefix:local" (closing tags)
// to "</local". Self-closing tags are covered by the second rewrite.
func StripNamespaces(body []byte) []byte {
	s := string(body)
	s = xmlnsDeclRe.ReplaceAllString(s, "")
	s = openTagNSRe.ReplaceAllString(s, "<")
	s = closeTagNSRe.ReplaceAllString(s, "</")
	return []byte(s)
}

// Node is a DOM-like tree node: a tag name, its attributes, its direct text
// content (if any), and its children in document order.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Node
	Parent   *Node
}

// Parse strips namespaces from body and parses the result into a Node tree
// rooted at the document element. Returns a schemas.GatewayError of
// taxonomy Parse if the sanitized body is not well-formed XML — Parse never
// silently returns an empty tree.
func Parse(body []byte) (*Node, error) {
	clean := StripNamespaces(body)
	dec := xml.NewDecoder(strings.NewReader(string(clean)))

	var root *Node
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return nil, schemas.NewParseError("failed to parse XML response", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Tag: t.Name.Local, Attrs: map[string]string{}}
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				n.Parent = parent
				parent.Children = append(parent.Children, n)
			} else {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				cur := stack[len(stack)-1]
				cur.Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, schemas.NewParseError("empty XML document", nil)
	}
	return root, nil
}

// TrimmedText returns the node's text content with surrounding whitespace
// removed.
func (n *Node) TrimmedText() string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Text)
}

// Find returns every descendant of n (n included) whose tag equals name,
// in document order. A leading "//" or ".//" prefix in callers' path
// expressions is handled by ValueAt; Find itself always searches the full
// subtree.
func (n *Node) Find(name string) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		if cur.Tag == name {
			out = append(out, cur)
		}
		for _, c := range cur.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// Child returns the first direct child of n with the given tag, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Tag == name {
			return c
		}
	}
	return nil
}

// ValueAt evaluates a simple path expression against root and returns the
// matched node's trimmed text, cast to string. Supported forms:
//   - "A/B/C"    — a direct-child chain starting at root
//   - "//Tag"    — the first descendant anywhere under root with tag Tag
//   - ".//Tag"   — equivalent to "//Tag", relative-search spelling
//   - "//Tag/B"  — the first descendant with tag Tag, then a direct-child
//     chain from there
//
// Returns defaultValue on no match or a none-valued node.
func ValueAt(root *Node, path string, defaultValue string) string {
	n := resolvePath(root, path)
	if n == nil {
		return defaultValue
	}
	text := n.TrimmedText()
	if text == "" {
		return defaultValue
	}
	return text
}

// ValueAtFloat is ValueAt cast to float64.
func ValueAtFloat(root *Node, path string, defaultValue float64) float64 {
	s := ValueAt(root, path, "")
	if s == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// ValueAtInt is ValueAt cast to int.
func ValueAtInt(root *Node, path string, defaultValue int) int {
	s := ValueAt(root, path, "")
	if s == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}

func resolvePath(root *Node, path string) *Node {
	if root == nil {
		return nil
	}
	switch {
	case strings.HasPrefix(path, ".//"):
		return resolveDescendantPath(root, strings.TrimPrefix(path, ".//"))
	case strings.HasPrefix(path, "//"):
		return resolveDescendantPath(root, strings.TrimPrefix(path, "//"))
	default:
		return childChain(root, path)
	}
}

// resolveDescendantPath handles "//Tag" and "//Tag/B/C": Tag is located
// anywhere under root via firstDescendant, then any remaining segments are
// walked as a direct-child chain from there.
func resolveDescendantPath(root *Node, rest string) *Node {
	segs := strings.Split(rest, "/")
	cur := firstDescendant(root, segs[0])
	if cur == nil || len(segs) == 1 {
		return cur
	}
	return childChain(cur, strings.Join(segs[1:], "/"))
}

func childChain(root *Node, path string) *Node {
	cur := root
	for _, seg := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		if seg == "" {
			continue
		}
		cur = cur.Child(seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

func firstDescendant(root *Node, tag string) *Node {
	matches := root.Find(tag)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}
