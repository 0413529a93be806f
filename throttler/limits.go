package throttler

import (
	"time"

	"github.com/garrettmk/broccoli/schemas"
)

// DefaultLimits is the static per-action quota table, restored from the
// worker's original MWS throttle configuration: quota_max tokens, restore_rate per token, and an informational hourly
// ceiling.
var DefaultLimits = map[string]schemas.ActionLimits{
	"ListMatchingProducts": {QuotaMax: 20, RestoreRate: 5 * time.Second, HourlyMax: 720},
	"GetMatchingProduct":   {QuotaMax: 20, RestoreRate: 500 * time.Millisecond, HourlyMax: 7200},
	"GetMatchingProductForId": {
		QuotaMax: 20, RestoreRate: 200 * time.Millisecond, HourlyMax: 18000,
	},
	"GetCompetitivePricingForSKU":  {QuotaMax: 20, RestoreRate: 100 * time.Millisecond, HourlyMax: 36000},
	"GetCompetitivePricingForASIN": {QuotaMax: 20, RestoreRate: 100 * time.Millisecond, HourlyMax: 36000},
	"GetLowestOfferListingsForSKU": {QuotaMax: 20, RestoreRate: 100 * time.Millisecond, HourlyMax: 36000},
	"GetLowestOfferListingsForASIN": {
		QuotaMax: 20, RestoreRate: 100 * time.Millisecond, HourlyMax: 36000,
	},
	"GetLowestPricedOffersForSKU": {QuotaMax: 10, RestoreRate: 200 * time.Millisecond, HourlyMax: 200},
	"GetLowestPriceOffersForASIN": {QuotaMax: 10, RestoreRate: 200 * time.Millisecond, HourlyMax: 36000},
	"GetMyFeesEstimate":           {QuotaMax: 20, RestoreRate: 100 * time.Millisecond, HourlyMax: 36000},
	"GetMyPriceForSKU":            {QuotaMax: 20, RestoreRate: 100 * time.Millisecond, HourlyMax: 36000},
	"GetMyPriceForASIN":           {QuotaMax: 20, RestoreRate: 100 * time.Millisecond, HourlyMax: 36000},
	"GetProductCategoriesForSKU":  {QuotaMax: 20, RestoreRate: 5 * time.Second, HourlyMax: 720},
	"GetProductCategoriesForASIN": {QuotaMax: 20, RestoreRate: 5 * time.Second, HourlyMax: 720},
	"GetServiceStatus":            {QuotaMax: 2, RestoreRate: 300 * time.Second},
}

// PriorityQuotas overrides quota_max per action for a small integer
// priority (0, 1, 2; higher = more aggressive). Priorities above the
// table's ceiling are clamped to the highest defined priority; actions
// absent from a given priority's row are left at their DefaultLimits
// quota_max (spec.md §4.3's illustrative table).
var PriorityQuotas = map[int]map[string]int{
	0: {
		"GetServiceStatus":     1,
		"ListMatchingProducts": 1,
		"GetMyFeesEstimate":    1,
	},
	1: {
		"GetServiceStatus":     2,
		"ListMatchingProducts": 5,
		"GetMyFeesEstimate":    5,
	},
	2: {
		"GetServiceStatus":     2,
		"ListMatchingProducts": 20,
		"GetMyFeesEstimate":    20,
	},
}

// maxPriority is the ceiling priorities are clamped to.
func maxPriority() int {
	max := 0
	for p := range PriorityQuotas {
		if p > max {
			max = p
		}
	}
	return max
}

// ClampPriority normalizes a caller-supplied priority: non-integer values
// (represented here as ok=false) fall back to 0, and values above the
// table's ceiling are clamped.
func ClampPriority(priority int, ok bool) int {
	if !ok {
		return 0
	}
	if priority < 0 {
		return 0
	}
	if p := maxPriority(); priority > p {
		return p
	}
	return priority
}

// resolveQuotaMax returns the quota_max to use for action at the given
// priority: the priority table's override if present, otherwise the
// action's default quota_max. Actions with no DefaultLimits entry return
// (0, false) — unknown actions pass through unthrottled.
func resolveQuotaMax(action string, priority int) (int, bool) {
	limits, known := DefaultLimits[action]
	if !known {
		return 0, false
	}
	if row, ok := PriorityQuotas[priority]; ok {
		if override, ok := row[action]; ok {
			return override, true
		}
	}
	return limits.QuotaMax, true
}
