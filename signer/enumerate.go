package signer

import (
	"fmt"
	"sort"
	"strings"
)

// EnumerateList flattens a list parameter into MWS's indexed form (spec.md
// §4.1). If root is "MarketplaceId" the item tag is "Id"; otherwise it is
// root with the first occurrence of the literal substring "List" removed.
// Dict-valued items expand each inner key to "<root>.<tag>.<n>.<innerKey>"
// (recovered from the original worker's list-of-dict SubmitFeed parameters;
// see SPEC_FULL.md §9).
func EnumerateList(root string, values []any) map[string]string {
	tag := itemTag(root)
	out := make(map[string]string, len(values))
	for i, v := range values {
		n := i + 1
		switch item := v.(type) {
		case map[string]any:
			keys := make([]string, 0, len(item))
			for k := range item {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				out[fmt.Sprintf("%s.%s.%d.%s", root, tag, n, k)] = fmt.Sprint(item[k])
			}
		default:
			out[fmt.Sprintf("%s.%s.%d", root, tag, n)] = fmt.Sprint(v)
		}
	}
	return out
}

func itemTag(root string) string {
	if root == "MarketplaceId" {
		return "Id"
	}
	return strings.Replace(root, "List", "", 1)
}
