package sections

import (
	"time"

	"github.com/garrettmk/broccoli/schemas"
)

// ProductAdvertising is the Product Advertising API section. Unlike MWS
// sections it is dispatched over GET and signs with AssociateTag rather
// than SellerId (spec.md §4.4 step 7).
var ProductAdvertising = &schemas.SectionSpec{
	Name:             "productadvertising",
	URIPath:          "/onca/xml",
	Version:          "2013-08-01",
	AccountParamName: "AssociateTag",
	ActionParamName:  "Operation",
	Actions: map[string]*schemas.ActionSpec{
		"ItemSearch": {
			Name:     "ItemSearch",
			CacheTTL: 30 * time.Minute,
		},
		"ItemLookup": {
			Name:     "ItemLookup",
			CacheTTL: 30 * time.Minute,
		},
		"SimilarityLookup": {
			Name:     "SimilarityLookup",
			CacheTTL: 30 * time.Minute,
		},
	},
}
