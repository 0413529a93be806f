package sections

import (
	"strconv"
	"time"

	"github.com/garrettmk/broccoli/schemas"
	"github.com/garrettmk/broccoli/xmlnorm"
)

// Products is the MWS Products API section (spec.md §6's section table).
var Products = &schemas.SectionSpec{
	Name:             "products",
	URIPath:          "/Products/2011-10-01",
	Version:          "2011-10-01",
	AccountParamName: "SellerId",
	ActionParamName:  "Action",
	Actions: map[string]*schemas.ActionSpec{
		"ListMatchingProducts": {
			Name:     "ListMatchingProducts",
			CacheTTL: time.Hour,
		},
		"GetMatchingProduct": {
			Name:     "GetMatchingProduct",
			CacheTTL: time.Hour,
		},
		"GetMatchingProductForId": {
			Name:     "GetMatchingProductForId",
			CacheTTL: time.Hour,
		},
		"GetCompetitivePricingForSKU": {
			Name:              "GetCompetitivePricingForSKU",
			CacheTTL:          5 * time.Minute,
			RestoreRateAdjust: 50 * time.Millisecond,
		},
		"GetCompetitivePricingForASIN": {
			Name:              "GetCompetitivePricingForASIN",
			CacheTTL:          5 * time.Minute,
			RestoreRateAdjust: 50 * time.Millisecond,
		},
		"GetLowestOfferListingsForSKU": {
			Name:     "GetLowestOfferListingsForSKU",
			CacheTTL: 5 * time.Minute,
		},
		"GetLowestOfferListingsForASIN": {
			Name:     "GetLowestOfferListingsForASIN",
			CacheTTL: 5 * time.Minute,
		},
		"GetLowestPricedOffersForSKU": {
			Name:     "GetLowestPricedOffersForSKU",
			CacheTTL: 2 * time.Minute,
		},
		"GetLowestPriceOffersForASIN": {
			Name:     "GetLowestPriceOffersForASIN",
			CacheTTL: 2 * time.Minute,
		},
		"GetMyFeesEstimate": {
			Name:     "GetMyFeesEstimate",
			CacheTTL: 30 * time.Minute,
		},
		"GetMyPriceForSKU": {
			Name:     "GetMyPriceForSKU",
			CacheTTL: 5 * time.Minute,
		},
		"GetMyPriceForASIN": {
			Name:     "GetMyPriceForASIN",
			CacheTTL: 5 * time.Minute,
		},
		"GetProductCategoriesForSKU": {
			Name:     "GetProductCategoriesForSKU",
			CacheTTL: time.Hour,
		},
		"GetProductCategoriesForASIN": {
			Name:     "GetProductCategoriesForASIN",
			CacheTTL: time.Hour,
		},
		"GetServiceStatus": {
			Name:     "GetServiceStatus",
			CacheTTL: 5 * time.Minute,
		},
	},
}

// ProjectListMatchingProducts builds one record per Product descendant,
// omitting any key whose XPath missed (spec.md §4.4).
func ProjectListMatchingProducts(root *xmlnorm.Node) []map[string]any {
	var out []map[string]any
	for _, product := range root.Find("Product") {
		record := map[string]any{}

		if sku := xmlnorm.ValueAt(product, "Identifiers/MarketplaceASIN/ASIN", ""); sku != "" {
			record["sku"] = sku
		}
		if brand := firstNonEmpty(product, "Brand", "Manufacturer", "Label", "Publisher", "Studio"); brand != "" {
			record["brand"] = brand
		}
		if model := firstNonEmpty(product, "Model", "PartNumber"); model != "" {
			record["model"] = model
		}
		if price := xmlnorm.ValueAt(product, "//ListPrice/Amount", ""); price != "" {
			record["price"] = xmlnorm.ValueAtFloat(product, "//ListPrice/Amount", 0)
		}
		if n := xmlnorm.ValueAt(product, "//NumberOfItems", ""); n != "" {
			record["NumberOfItems"] = xmlnorm.ValueAtInt(product, "//NumberOfItems", 0)
		}
		if n := xmlnorm.ValueAt(product, "//PackageQuantity", ""); n != "" {
			record["PackageQuantity"] = xmlnorm.ValueAtInt(product, "//PackageQuantity", 0)
		}
		if url := xmlnorm.ValueAt(product, "//SmallImage/URL", ""); url != "" {
			record["image_url"] = url
		}
		if title := xmlnorm.ValueAt(product, "//Title", ""); title != "" {
			record["title"] = title
		}
		if category, rank, ok := firstNonNumericSalesRank(product); ok {
			record["category"] = category
			record["rank"] = rank
		}
		if desc := joinFeatures(product); desc != "" {
			record["description"] = desc
		}

		out = append(out, record)
	}
	return out
}

func firstNonEmpty(root *xmlnorm.Node, tags ...string) string {
	for _, tag := range tags {
		if v := xmlnorm.ValueAt(root, "//"+tag, ""); v != "" {
			return v
		}
	}
	return ""
}

// firstNonNumericSalesRank returns the category and rank of the first
// SalesRank child whose ProductCategoryId is not purely numeric (spec.md
// §4.4: numeric category ids are internal Amazon bucket ids, not the
// human-readable category this field is meant to surface).
func firstNonNumericSalesRank(root *xmlnorm.Node) (category string, rank int, ok bool) {
	for _, sr := range root.Find("SalesRank") {
		id := sr.Child("ProductCategoryId")
		if id == nil {
			continue
		}
		text := id.TrimmedText()
		if text == "" || isNumeric(text) {
			continue
		}
		return text, xmlnorm.ValueAtInt(sr, "Rank", 0), true
	}
	return "", 0, false
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func joinFeatures(root *xmlnorm.Node) string {
	var lines []string
	for _, f := range root.Find("Feature") {
		if text := f.TrimmedText(); text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	out := lines[0]
	for _, l := range lines[1:] {
		out += "\n" + l
	}
	return out
}

// ProjectCompetitivePricingForASIN builds a map keyed by ASIN, one entry
// per GetCompetitivePricingForASINResult (spec.md §4.4).
func ProjectCompetitivePricingForASIN(root *xmlnorm.Node) map[string]any {
	out := map[string]any{}
	for _, result := range root.Find("GetCompetitivePricingForASINResult") {
		asin := result.Attrs["ASIN"]
		if asin == "" {
			continue
		}
		if status := result.Attrs["status"]; status != "" && status != "Success" {
			code := xmlnorm.ValueAt(result, "//Code", "")
			message := xmlnorm.ValueAt(result, "//Message", "")
			out[asin] = map[string]any{"error": code + ": " + message}
			continue
		}

		record := map[string]any{"offers": 0}
		for _, cp := range result.Find("CompetitivePrice") {
			if cp.Attrs["condition"] != "New" {
				continue
			}
			record["listing_price"] = xmlnorm.ValueAtFloat(cp, "//ListingPrice/Amount", 0)
			record["shipping"] = xmlnorm.ValueAtFloat(cp, "//Shipping/Amount", 0)
			record["landed_price"] = xmlnorm.ValueAtFloat(cp, "//LandedPrice/Amount", 0)
			break
		}
		for _, olc := range result.Find("OfferListingCount") {
			if olc.Attrs["condition"] == "New" {
				if n, err := strconv.Atoi(olc.TrimmedText()); err == nil {
					record["offers"] = n
				}
				break
			}
		}
		out[asin] = record
	}
	return out
}

// ProjectMyFeesEstimate returns the single aggregate fee total (spec.md
// §4.4).
func ProjectMyFeesEstimate(root *xmlnorm.Node) float64 {
	return xmlnorm.ValueAtFloat(root, "//TotalFeesEstimate/Amount", 0)
}

// ProjectServiceStatus returns the service health text (spec.md §4.4).
func ProjectServiceStatus(root *xmlnorm.Node) string {
	return xmlnorm.ValueAt(root, "//Status", "")
}
