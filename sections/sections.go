// Package sections declares the static per-API-section configuration
// (URI path, API version, parameter names, and the per-action cache/
// throttle tunables) that the gateway dispatches against, and the
// response projections that turn a parsed XML body into a JSON-shaped
// record for each supported action.
package sections

import (
	"fmt"
	"strings"

	"github.com/garrettmk/broccoli/schemas"
	"github.com/garrettmk/broccoli/xmlnorm"
)

// Registry maps a section name (the left-hand side of a fully-qualified
// action like "products.ListMatchingProducts") to its SectionSpec.
type Registry map[string]*schemas.SectionSpec

// DefaultRegistry holds the two sections this gateway ships with. A new
// section is added here without touching the signer, throttler, or cache
// packages.
var DefaultRegistry = Registry{
	Products.Name:           Products,
	ProductAdvertising.Name: ProductAdvertising,
}

// Split decomposes a fully-qualified action name "<section>.<action>"
// into its two parts.
func Split(fqAction string) (section string, action string, err error) {
	parts := strings.SplitN(fqAction, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed action name %q, expected \"<section>.<action>\"", fqAction)
	}
	return parts[0], parts[1], nil
}

// Lookup resolves a fully-qualified action name to its section and
// action spec.
func (r Registry) Lookup(fqAction string) (*schemas.SectionSpec, *schemas.ActionSpec, error) {
	sectionName, actionName, err := Split(fqAction)
	if err != nil {
		return nil, nil, err
	}
	section, ok := r[sectionName]
	if !ok {
		return nil, nil, fmt.Errorf("unknown section %q", sectionName)
	}
	action, ok := section.Actions[actionName]
	if !ok {
		return nil, nil, fmt.Errorf("unknown action %q for section %q", actionName, sectionName)
	}
	return section, action, nil
}

// ProjectGeneric is the fallback projection for actions with no dedicated
// response shape (spec.md §4.4 names explicit projections only for
// ListMatchingProducts, GetCompetitivePricingForASIN, GetMyFeesEstimate, and
// GetServiceStatus). It folds the parsed tree into nested maps, repeated
// child tags becoming a slice, so every other action still returns
// JSON-shaped data rather than forcing callers to walk an xmlnorm.Node.
func ProjectGeneric(root *xmlnorm.Node) any {
	return nodeToValue(root)
}

func nodeToValue(n *xmlnorm.Node) any {
	if len(n.Children) == 0 {
		return n.TrimmedText()
	}
	m := map[string]any{}
	for _, c := range n.Children {
		val := nodeToValue(c)
		if existing, ok := m[c.Tag]; ok {
			if list, ok := existing.([]any); ok {
				m[c.Tag] = append(list, val)
			} else {
				m[c.Tag] = []any{existing, val}
			}
			continue
		}
		m[c.Tag] = val
	}
	return m
}
